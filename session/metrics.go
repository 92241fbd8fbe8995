package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ozontech/seq-view/metric"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "active",
		Help:      "Number of registered sessions",
	})
	sessionsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "opened_total",
		Help:      "",
	})
	sessionsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "expired_total",
		Help:      "Sessions closed by the maintenance loop after an idle period",
	})
	docsResident = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "docs_resident",
		Help:      "Records resident in containers across all sessions",
	})

	fetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "fetches_total",
		Help:      "",
	})
	fetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "fetch_errors_total",
		Help:      "",
	})
	shortLoadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "short_loads_total",
		Help:      "Loads that returned fewer records than requested",
	})
	oversizedLoadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "oversized_loads_total",
		Help:      "Loads that returned more records than requested",
	})
	plansBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "plans_blocked_total",
		Help:      "Planned fetches dropped because an overlapping fetch was in flight",
	})
	loadPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "load_panics_total",
		Help:      "",
	})

	fetchStagesSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seq_view",
		Subsystem: "session",
		Name:      "fetch_stages_seconds",
		Buckets:   metric.SecondsBuckets,
	}, []string{"stage"})
)
