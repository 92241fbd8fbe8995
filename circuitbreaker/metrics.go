package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerSuccess = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "circuit_breaker",
		Name:      "success",
		Help:      "Count of each time `Execute` does not return an error",
	}, []string{"name"})
	breakerErr = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seq_view",
		Subsystem: "circuit_breaker",
		Name:      "err",
		Help:      "The number of errors that have occurred in the circuit breaker",
	}, []string{"name", "kind"})
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "seq_view",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "The state of the circuit breaker",
	}, []string{"name"})
)
