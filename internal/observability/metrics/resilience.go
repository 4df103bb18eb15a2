package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ResilienceMetrics exports executor retries and breaker transitions.
// It satisfies resilience.Observer.
type ResilienceMetrics struct {
	service      string
	retriesTotal *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

func newResilienceMetrics(service string) *ResilienceMetrics {
	return &ResilienceMetrics{
		service: service,
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resilience",
				Name:      "retries_total",
				Help:      "Retries performed by the resilience executor per operation.",
			},
			[]string{"service", "operation"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "resilience",
				Name:      "breaker_state",
				Help:      "Circuit breaker state per operation: 0 closed, 1 half-open, 2 open.",
			},
			[]string{"service", "operation"},
		),
	}
}

func (m *ResilienceMetrics) register(registry *prometheus.Registry) {
	registry.MustRegister(m.retriesTotal, m.breakerState)
}

func (m *ResilienceMetrics) ObserveRetry(operation string) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *ResilienceMetrics) ObserveBreakerState(operation string, state string) {
	m.breakerState.WithLabelValues(m.service, operation).Set(breakerStateValue(state))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
