package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus counters and gauges for the ingest server.
// A nil *Metrics records nothing.
type Metrics struct {
	connectionsAccepted prometheus.Counter
	handshakeFailures   prometheus.Counter
	activeSessions      prometheus.Gauge
	sessionsRejected    *prometheus.CounterVec
	streamsIngested     *prometheus.CounterVec
	bytesIngested       *prometheus.CounterVec
	streamErrors        *prometheus.CounterVec
	datagramsEchoed     prometheus.Counter
	datagramsDropped    prometheus.Counter
	buffersEvicted      prometheus.Counter
}

// NewMetrics creates the ingest metrics and registers them on reg.
// It panics if any metric is already registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_connections_accepted_total",
			Help: "Total number of QUIC connections accepted",
		}),
		handshakeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_handshake_failures_total",
			Help: "Total number of QUIC connections abandoned before the handshake completed",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ingest_active_sessions",
			Help: "Number of WebTransport sessions currently ingesting",
		}),
		sessionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_sessions_rejected_total",
			Help: "Total number of session requests rejected before or during the upgrade",
		}, []string{"reason"}),
		streamsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_streams_total",
			Help: "Total number of chunk streams ingested",
		}, []string{"media", "role"}),
		bytesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_bytes_total",
			Help: "Total number of payload bytes appended to chunk buffers",
		}, []string{"media"}),
		streamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_stream_errors_total",
			Help: "Total number of chunk streams rejected",
		}, []string{"code"}),
		datagramsEchoed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_datagrams_echoed_total",
			Help: "Total number of datagrams echoed",
		}),
		datagramsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_datagrams_dropped_total",
			Help: "Total number of datagrams dropped by the echo rate limit",
		}),
		buffersEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_buffers_evicted_total",
			Help: "Total number of chunk buffers removed after their max-age elapsed",
		}),
	}

	reg.MustRegister(
		m.connectionsAccepted,
		m.handshakeFailures,
		m.activeSessions,
		m.sessionsRejected,
		m.streamsIngested,
		m.bytesIngested,
		m.streamErrors,
		m.datagramsEchoed,
		m.datagramsDropped,
		m.buffersEvicted,
	)

	return m
}

func (m *Metrics) connectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *Metrics) handshakeFailed() {
	if m == nil {
		return
	}
	m.handshakeFailures.Inc()
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) sessionEnded() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

func (m *Metrics) sessionRejected(reason string) {
	if m == nil {
		return
	}
	m.sessionsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) streamIngested(h ChunkHeader, n int) {
	if m == nil {
		return
	}
	m.streamsIngested.WithLabelValues(h.MediaType.String(), h.Role.String()).Inc()
	m.bytesIngested.WithLabelValues(h.MediaType.String()).Add(float64(n))
}

func (m *Metrics) streamFailed(code string) {
	if m == nil {
		return
	}
	m.streamErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) datagramEchoed() {
	if m == nil {
		return
	}
	m.datagramsEchoed.Inc()
}

func (m *Metrics) datagramDropped() {
	if m == nil {
		return
	}
	m.datagramsDropped.Inc()
}

func (m *Metrics) buffersEvictedAdd(n int) {
	if m == nil {
		return
	}
	m.buffersEvicted.Add(float64(n))
}
