package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheOldest = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "oldest",
		Help:      "",
	}, []string{"cleaner"})
	CacheAddBuckets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "add_buckets",
		Help:      "",
	}, []string{"cleaner"})
	CacheDelBuckets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "del_buckets",
		Help:      "",
	}, []string{"cleaner"})
	CacheCleanGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "clean_generations",
		Help:      "",
	}, []string{"cleaner"})
	CacheChangeGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "change_generations",
		Help:      "",
	}, []string{"cleaner"})

	CacheSizeReleased = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "size_released_total",
		Help:      "",
	}, []string{"layer"})
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "",
	}, []string{"layer"})
	CacheMissTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "miss_total",
		Help:      "",
	}, []string{"layer"})
	CachePanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "panics_total",
		Help:      "",
	}, []string{"layer"})
	CacheLockWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "lock_waits_total",
		Help:      "",
	}, []string{"layer"})
	CacheWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "waits_total",
		Help:      "",
	}, []string{"layer"})
	CacheReattemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "reattempts_total",
		Help:      "",
	}, []string{"layer"})
	CacheHitsSizeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "hits_size_total",
		Help:      "",
	}, []string{"layer"})
	CacheMissSizeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "miss_size_total",
		Help:      "",
	}, []string{"layer"})
	CacheMapsRecreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "maps_recreated",
		Help:      "",
	}, []string{"layer"})
	CacheMissLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seq_view",
		Subsystem: "cache",
		Name:      "miss_latency_seconds",
		Buckets:   SecondsBuckets,
	}, []string{"layer"})
)
