package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters for the HTTP side of the ingest server.
type Metrics struct {
	registry             *prometheus.Registry
	requestsTotal        *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	transcodesTotal      *prometheus.CounterVec
	activeSessionsListed prometheus.Gauge
}

// New creates the HTTP metrics on a fresh registry. Other collectors, such as
// the ingest metrics, may be registered on Registry().
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by route pattern and status class",
	}, []string{"route", "status"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		// Up to a minute for synchronous transcode runs.
		Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 2.5, 10, 60},
	}, []string{"route"})
	transcodesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transcodes_total",
		Help: "Total number of transcode runs by result",
	}, []string{"result"})
	activeSessionsListed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_sessions_listed",
		Help: "Number of sessions reported by the last status request",
	})

	registry.MustRegister(
		requestsTotal,
		requestDuration,
		transcodesTotal,
		activeSessionsListed,
	)

	return &Metrics{
		registry:             registry,
		requestsTotal:        requestsTotal,
		requestDuration:      requestDuration,
		transcodesTotal:      transcodesTotal,
		activeSessionsListed: activeSessionsListed,
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(route, StatusClass(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// IncTranscodes counts a finished transcode; result is "ok" or "error".
func (m *Metrics) IncTranscodes(result string) {
	m.transcodesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) SetSessionsListed(n int) {
	m.activeSessionsListed.Set(float64(n))
}

// Handler returns an http.Handler that serves every metric of the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
