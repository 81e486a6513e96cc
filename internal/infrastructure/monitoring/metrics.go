package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Bridge metrics
	BridgeRequests     *prometheus.CounterVec
	BridgeDuration     *prometheus.HistogramVec
	BridgeInflight     prometheus.Gauge
	BridgeDuplicates   prometheus.Counter
	BridgeUndecodable  prometheus.Counter
	BridgeReplyFailure *prometheus.CounterVec

	// Client metrics
	ClientCalls       *prometheus.CounterVec
	ClientDuration    *prometheus.HistogramVec
	ClientPending     prometheus.Gauge
	ClientLateReplies prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time
	snapshot  Snapshot
	mu        sync.RWMutex
}

// Snapshot holds running totals for the JSON health endpoint
type Snapshot struct {
	BridgeRequests int64   `json:"bridgeRequests"`
	BridgeErrors   int64   `json:"bridgeErrors"`
	Duplicates     int64   `json:"duplicates"`
	ClientCalls    int64   `json:"clientCalls"`
	ClientTimeouts int64   `json:"clientTimeouts"`
	WSConnections  int64   `json:"wsConnections"`
	UptimeSeconds  float64 `json:"uptimeSeconds"`
}

var durationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// NewMetrics registers every collector on reg. A nil reg uses a private
// registry so tests can build any number of instances.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worldbridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worldbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: durationBuckets,
			},
			[]string{"method", "path"},
		),

		BridgeRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worldbridge_bridge_requests_total",
				Help: "Requests handled by the bridge, by outcome code",
			},
			[]string{"method", "code"},
		),
		BridgeDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worldbridge_bridge_handler_duration_seconds",
				Help:    "Bridge handler duration in seconds",
				Buckets: durationBuckets,
			},
			[]string{"method"},
		),
		BridgeInflight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "worldbridge_bridge_inflight",
				Help: "Requests currently executing in the bridge",
			},
		),
		BridgeDuplicates: f.NewCounter(
			prometheus.CounterOpts{
				Name: "worldbridge_bridge_duplicates_total",
				Help: "Request copies dropped because their id was already seen",
			},
		),
		BridgeUndecodable: f.NewCounter(
			prometheus.CounterOpts{
				Name: "worldbridge_bridge_undecodable_total",
				Help: "Inbound messages that were not bridge envelopes",
			},
		),
		BridgeReplyFailure: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worldbridge_bridge_reply_failures_total",
				Help: "Replies a transport failed to send",
			},
			[]string{"transport"},
		),

		ClientCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worldbridge_client_calls_total",
				Help: "Client calls settled, by outcome code",
			},
			[]string{"method", "code"},
		),
		ClientDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worldbridge_client_call_duration_seconds",
				Help:    "Client call round trip in seconds",
				Buckets: durationBuckets,
			},
			[]string{"method"},
		),
		ClientPending: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "worldbridge_client_pending",
				Help: "Calls awaiting a reply",
			},
		),
		ClientLateReplies: f.NewCounter(
			prometheus.CounterOpts{
				Name: "worldbridge_client_unmatched_replies_total",
				Help: "Replies that matched no pending call",
			},
		),

		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "worldbridge_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worldbridge_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction"},
		),
	}

	f.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "worldbridge_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordBridgeRequest records one executed request. code is empty on success.
func (m *Metrics) RecordBridgeRequest(method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BridgeRequests.WithLabelValues(method, outcome(code)).Inc()
	m.BridgeDuration.WithLabelValues(method).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.BridgeRequests++
	if code != "" {
		m.snapshot.BridgeErrors++
	}
	m.mu.Unlock()
}

// BridgeStarted and BridgeFinished bracket a handler execution
func (m *Metrics) BridgeStarted() {
	if m == nil {
		return
	}
	m.BridgeInflight.Inc()
}

func (m *Metrics) BridgeFinished() {
	if m == nil {
		return
	}
	m.BridgeInflight.Dec()
}

// IncDuplicate counts a dropped request copy
func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	m.BridgeDuplicates.Inc()
	m.mu.Lock()
	m.snapshot.Duplicates++
	m.mu.Unlock()
}

// IncUndecodable counts a foreign message seen by the bridge
func (m *Metrics) IncUndecodable() {
	if m == nil {
		return
	}
	m.BridgeUndecodable.Inc()
}

// IncReplyFailure counts a reply that one transport could not send
func (m *Metrics) IncReplyFailure(transport string) {
	if m == nil {
		return
	}
	m.BridgeReplyFailure.WithLabelValues(transport).Inc()
}

// RecordClientCall records a settled client call. code is empty on success.
func (m *Metrics) RecordClientCall(method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ClientCalls.WithLabelValues(method, outcome(code)).Inc()
	m.ClientDuration.WithLabelValues(method).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.ClientCalls++
	if code == "timeout" {
		m.snapshot.ClientTimeouts++
	}
	m.mu.Unlock()
}

// SetClientPending sets the pending call gauge
func (m *Metrics) SetClientPending(n int) {
	if m == nil {
		return
	}
	m.ClientPending.Set(float64(n))
}

// IncUnmatchedReply counts a reply for an unknown or settled id
func (m *Metrics) IncUnmatchedReply() {
	if m == nil {
		return
	}
	m.ClientLateReplies.Inc()
}

// RecordWSMessage records a WebSocket message ("in" or "out")
func (m *Metrics) RecordWSMessage(direction string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.WSConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.WSConnections--
	m.mu.Unlock()
}

// Snapshot returns the current totals
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

func outcome(code string) string {
	if code == "" {
		return "ok"
	}
	return code
}
