package stopwatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ozontech/seq-view/logger"
)

type Metric interface {
	Stop()
}

// Stopwatch measures wall time of the named stages of a single operation
// and dumps them into a prometheus histogram vector keyed by stage.
// It is not safe for concurrent use: each operation carries its own
// Stopwatch, handed over together with the operation itself.
type Stopwatch struct {
	stages []*stageMetric

	nowFn   func() time.Time
	sinceFn func(time.Time) time.Duration
}

func New() *Stopwatch {
	return &Stopwatch{
		nowFn:   time.Now,
		sinceFn: time.Since,
	}
}

func (sw *Stopwatch) Start(name string) Metric {
	m := &stageMetric{sw: sw, name: name, start: sw.nowFn()}
	sw.stages = append(sw.stages, m)
	return m
}

// Values returns total measured duration per stage name.
func (sw *Stopwatch) Values() map[string]time.Duration {
	values := make(map[string]time.Duration, len(sw.stages))
	for _, s := range sw.stages {
		if s.stopped {
			values[s.name] += s.took
		}
	}
	return values
}

// Export observes every stopped stage into m and resets the stopwatch.
// The vector must be declared with a single "stage" label.
func (sw *Stopwatch) Export(m *prometheus.HistogramVec) {
	for _, s := range sw.stages {
		if !s.stopped {
			logger.Warn("wrong Stopwatch usage: stage not stopped", zap.String("stage", s.name))
			continue
		}
		m.WithLabelValues(s.name).Observe(s.took.Seconds())
	}
	sw.stages = sw.stages[:0]
}

type stageMetric struct {
	sw      *Stopwatch
	name    string
	start   time.Time
	took    time.Duration
	stopped bool
}

func (m *stageMetric) Stop() {
	if m.stopped {
		logger.Warn("wrong Stopwatch usage: Stop() called twice", zap.String("stage", m.name))
		return
	}
	m.took = m.sw.sinceFn(m.start)
	m.stopped = true
}
