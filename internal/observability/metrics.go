package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use through a nil pointer; every recorder is a no-op
// when metrics are disabled.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	httpInflight  prometheus.Gauge
	normalizer    *prometheus.CounterVec
	normalizerDur prometheus.Histogram
	breakerState  *prometheus.GaugeVec
	domainEvents  *prometheus.CounterVec
	notifications *prometheus.CounterVec
	realtimeDrops *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics registry once. Later calls return the
// same instance.
func Init() *Metrics {
	initOnce.Do(func() {
		instance = NewMetrics()
	})
	return instance
}

// NewMetrics builds an isolated registry; tests use it directly.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curio_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curio_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "curio_http_inflight_requests",
			Help: "In-flight HTTP requests.",
		}),
		normalizer: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curio_normalizer_calls_total",
			Help: "Link normalizer outcomes (ok, fallback, breaker_open, rate_limited).",
		}, []string{"outcome"}),
		normalizerDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "curio_normalizer_duration_seconds",
			Help:    "Link normalizer upstream latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "curio_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
		domainEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curio_domain_events_total",
			Help: "Domain writes by kind (share, tip, cosign, taste_overlap, track_created).",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curio_notifications_total",
			Help: "Push notification dispatch outcomes.",
		}, []string{"outcome"}),
		realtimeDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curio_realtime_dropped_total",
			Help: "Realtime messages dropped because a client buffer was full.",
		}, []string{"channel_kind"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpLatency,
		m.httpInflight,
		m.normalizer,
		m.normalizerDur,
		m.breakerState,
		m.domainEvents,
		m.notifications,
		m.realtimeDrops,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) IncInflight() {
	if m == nil {
		return
	}
	m.httpInflight.Inc()
}

func (m *Metrics) DecInflight() {
	if m == nil {
		return
	}
	m.httpInflight.Dec()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveNormalizer(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.normalizer.WithLabelValues(outcome).Inc()
	if dur > 0 {
		m.normalizerDur.Observe(dur.Seconds())
	}
}

func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(state)
}

func (m *Metrics) IncDomainEvent(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.domainEvents.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) IncNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRealtimeDrop(channel string) {
	if m == nil {
		return
	}
	kind := "feed"
	if len(channel) > 8 && channel[:8] == "curator:" {
		kind = "curator"
	}
	m.realtimeDrops.WithLabelValues(kind).Inc()
}
