package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bms"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
	rejectedTotal   *prometheus.CounterVec

	searchRequestsTotal *prometheus.CounterVec
	searchDuration      *prometheus.HistogramVec
	searchResults       *prometheus.HistogramVec
	searchCandidates    *prometheus.HistogramVec

	*ResilienceMetrics
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rejected_total",
			Help:      "Requests rejected by traffic control by reason.",
		},
		[]string{"service", "reason"},
	)
	searchRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search requests by endpoint, mode and outcome category.",
		},
		[]string{"service", "endpoint", "mode", "outcome"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search execution duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"service", "endpoint", "mode"},
	)
	searchResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "results",
			Help:      "Distribution of returned results per successful search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"service", "endpoint", "mode"},
	)
	searchCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "channel_candidates",
			Help:      "Candidates returned by each retrieval channel before fusion.",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 50},
		},
		[]string{"service", "channel"},
	)

	resilienceMetrics := newResilienceMetrics(service)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		rejectedTotal,
		searchRequestsTotal,
		searchDuration,
		searchResults,
		searchCandidates,
	)
	resilienceMetrics.register(registry)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		rejectedTotal:       rejectedTotal,
		searchRequestsTotal: searchRequestsTotal,
		searchDuration:      searchDuration,
		searchResults:       searchResults,
		searchCandidates:    searchCandidates,
		ResilienceMetrics:   resilienceMetrics,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/search/similar/"):
		return "/v1/search/similar/{bookmark_id}"
	case strings.HasPrefix(path, "/v1/bookmarks/") && strings.HasSuffix(path, "/embedding"):
		return "/v1/bookmarks/{bookmark_id}/embedding"
	default:
		return path
	}
}

// RecordSearch counts one search call. outcome is "ok" or a domain error category.
func (m *HTTPServerMetrics) RecordSearch(service, endpoint, mode, outcome string, resultCount int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	if outcome == "" {
		outcome = "ok"
	}
	m.searchRequestsTotal.WithLabelValues(service, endpoint, mode, outcome).Inc()
	m.searchDuration.WithLabelValues(service, endpoint, mode).Observe(duration.Seconds())
	if outcome == "ok" {
		m.searchResults.WithLabelValues(service, endpoint, mode).Observe(float64(resultCount))
	}
}

func (m *HTTPServerMetrics) RecordChannelCandidates(service, channel string, count int) {
	if count < 0 {
		return
	}
	m.searchCandidates.WithLabelValues(service, channel).Observe(float64(count))
}

func (m *HTTPServerMetrics) RecordRejected(service, reason string) {
	m.rejectedTotal.WithLabelValues(service, reason).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
