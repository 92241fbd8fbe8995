package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are optional, a nil receiver disables reporting.
type Metrics struct {
	HitsTotal          prometheus.Counter
	MissTotal          prometheus.Counter
	PanicsTotal        prometheus.Counter
	LockWaitsTotal     prometheus.Counter
	WaitsTotal         prometheus.Counter
	ReattemptsTotal    prometheus.Counter
	HitsSizeTotal      prometheus.Counter
	MissSizeTotal      prometheus.Counter
	SizeReleasedTotal  prometheus.Counter
	MapsRecreatedTotal prometheus.Counter
	MissLatencySeconds prometheus.Observer
}

func (m *Metrics) reportHits(size uint64) {
	if m != nil {
		m.HitsTotal.Inc()
		m.HitsSizeTotal.Add(float64(size))
	}
}

func (m *Metrics) reportMiss(size uint64, latency float64) {
	if m != nil {
		m.MissTotal.Inc()
		m.MissSizeTotal.Add(float64(size))
		m.MissLatencySeconds.Observe(latency)
	}
}

func (m *Metrics) reportReleased(size uint64) {
	if m != nil {
		m.SizeReleasedTotal.Add(float64(size))
	}
}

func (m *Metrics) reportPanic() {
	if m != nil {
		m.PanicsTotal.Inc()
	}
}

func (m *Metrics) reportLockWait() {
	if m != nil {
		m.LockWaitsTotal.Inc()
	}
}

func (m *Metrics) reportWait() {
	if m != nil {
		m.WaitsTotal.Inc()
	}
}

func (m *Metrics) reportReattempt() {
	if m != nil {
		m.ReattemptsTotal.Inc()
	}
}

func (m *Metrics) reportMapsRecreated() {
	if m != nil {
		m.MapsRecreatedTotal.Inc()
	}
}

// CleanerMetrics are optional, a nil receiver disables reporting.
type CleanerMetrics struct {
	Oldest prometheus.Gauge

	AddBuckets prometheus.Counter
	DelBuckets prometheus.Counter

	CleanGenerations  prometheus.Counter
	ChangeGenerations prometheus.Counter
}

func (m *CleanerMetrics) BucketsInc() {
	if m != nil {
		m.AddBuckets.Inc()
	}
}

func (m *CleanerMetrics) BucketsSub(cnt int) {
	if m != nil && cnt > 0 {
		m.DelBuckets.Add(float64(cnt))
	}
}

func (m *CleanerMetrics) GenerationsInc() {
	if m != nil {
		m.ChangeGenerations.Inc()
	}
}

func (m *CleanerMetrics) GenerationsSub(cnt int) {
	if m != nil && cnt > 0 {
		m.CleanGenerations.Add(float64(cnt))
	}
}

func (m *CleanerMetrics) OldestSet(nsec int64) {
	if m != nil {
		m.Oldest.Set(float64(time.Unix(0, nsec).Unix()))
	}
}
