package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	embedTotal    *prometheus.CounterVec
	embedDuration *prometheus.HistogramVec
	embedInFlight prometheus.Gauge

	*ResilienceMetrics
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	embedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "bookmark_embed_total",
			Help:      "Total bookmark embedding jobs by status.",
		},
		[]string{"service", "status"},
	)
	embedDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "bookmark_embed_duration_seconds",
			Help:      "Bookmark embedding job duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	embedInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "bookmark_embed_in_flight",
			Help:      "Number of in-flight bookmark embedding jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	resilienceMetrics := newResilienceMetrics(service)

	registry.MustRegister(embedTotal, embedDuration, embedInFlight)
	resilienceMetrics.register(registry)

	return &WorkerMetrics{
		registry:          registry,
		embedTotal:        embedTotal,
		embedDuration:     embedDuration,
		embedInFlight:     embedInFlight,
		ResilienceMetrics: resilienceMetrics,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.embedInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service string, duration time.Duration, status string) {
	m.embedInFlight.Dec()
	if status == "" {
		status = "success"
	}
	m.embedTotal.WithLabelValues(service, status).Inc()
	m.embedDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}
