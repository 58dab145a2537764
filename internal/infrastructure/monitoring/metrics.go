package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Extension socket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// Proxied call metrics
	ProxyCalls    *prometheus.CounterVec
	ProxyDuration *prometheus.HistogramVec
	ProxyPending  prometheus.Gauge

	// Pagination metrics
	FetchRuns    *prometheus.CounterVec
	PagesFetched *prometheus.CounterVec
	ItemsFetched *prometheus.CounterVec

	// Direct voyager call metrics
	DirectCalls    *prometheus.CounterVec
	DirectDuration prometheus.Histogram

	// Session metrics
	SessionsStored    prometheus.Counter
	SessionsRefreshed prometheus.Counter

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector. promauto registers into the
// default registry, so call this once per process.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "linkbridge_ws_connections",
				Help: "Number of connected extension instances",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_ws_messages_total",
				Help: "Total number of extension socket messages",
			},
			[]string{"direction", "kind"},
		),

		ProxyCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_proxy_calls_total",
				Help: "Total number of proxied calls by outcome",
			},
			[]string{"kind", "outcome"},
		),
		ProxyDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkbridge_proxy_call_duration_seconds",
				Help:    "Proxied call duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"kind"},
		),
		ProxyPending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "linkbridge_proxy_pending_calls",
				Help: "Number of in-flight correlated calls",
			},
		),

		FetchRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_fetch_runs_total",
				Help: "Total number of pagination runs by termination reason",
			},
			[]string{"resource", "reason"},
		),
		PagesFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_pages_fetched_total",
				Help: "Total number of pages fetched",
			},
			[]string{"resource"},
		),
		ItemsFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_items_fetched_total",
				Help: "Total number of items returned to callers",
			},
			[]string{"resource"},
		),

		DirectCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_direct_calls_total",
				Help: "Total number of direct voyager calls by status class",
			},
			[]string{"status_class"},
		),
		DirectDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linkbridge_direct_call_duration_seconds",
				Help:    "Direct voyager call duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		SessionsStored: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "linkbridge_sessions_stored_total",
				Help: "Total number of session snapshots stored",
			},
		),
		SessionsRefreshed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "linkbridge_sessions_refreshed_total",
				Help: "Total number of proxied session refreshes",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "linkbridge_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProxyCall records one proxied call outcome. Implements the
// dispatcher's Metrics hook.
func (m *Metrics) RecordProxyCall(kind, outcome string, seconds float64) {
	m.ProxyCalls.WithLabelValues(kind, outcome).Inc()
	m.ProxyDuration.WithLabelValues(kind).Observe(seconds)
}

// SetPendingCalls tracks the in-flight correlated call count
func (m *Metrics) SetPendingCalls(n int) {
	m.ProxyPending.Set(float64(n))
}

// RecordWSMessage records an extension socket message
func (m *Metrics) RecordWSMessage(direction, kind string) {
	m.WSMessages.WithLabelValues(direction, kind).Inc()
}

// WSConnected tracks a new extension connection
func (m *Metrics) WSConnected() {
	m.WSConnections.Inc()
}

// WSDisconnected tracks a closed extension connection
func (m *Metrics) WSDisconnected() {
	m.WSConnections.Dec()
}

// RecordFetchRun records one completed pagination run
func (m *Metrics) RecordFetchRun(resource, reason string, pages, items int) {
	m.FetchRuns.WithLabelValues(resource, reason).Inc()
	m.PagesFetched.WithLabelValues(resource).Add(float64(pages))
	m.ItemsFetched.WithLabelValues(resource).Add(float64(items))
}

// SessionsStoredInc counts a stored session snapshot
func (m *Metrics) SessionsStoredInc() {
	m.SessionsStored.Inc()
}

// SessionsRefreshedInc counts a proxied session refresh
func (m *Metrics) SessionsRefreshedInc() {
	m.SessionsRefreshed.Inc()
}

// RecordDirectCall records one direct voyager call
func (m *Metrics) RecordDirectCall(statusClass string, duration time.Duration) {
	m.DirectCalls.WithLabelValues(statusClass).Inc()
	m.DirectDuration.Observe(duration.Seconds())
}
