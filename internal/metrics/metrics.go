// Package metrics exposes Prometheus collectors for dispatch, task and HTTP activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"

	"github.com/shaharia-lab/courier/internal/eventbus"
	"github.com/shaharia-lab/courier/internal/notification"
)

// Metrics owns a private registry so tests and multiple instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	channelAttempts *prometheus.CounterVec
	taskOutcomes    *prometheus.CounterVec
	retries         prometheus.Counter
	breakerState    *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		channelAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_channel_attempts_total",
			Help: "Channel delivery attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		taskOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_tasks_total",
			Help: "Notification tasks by terminal outcome",
		}, []string{"outcome"}),
		retries: f.NewCounter(prometheus.CounterOpts{
			Name: "courier_task_retries_total",
			Help: "Retries scheduled for failed notification tasks",
		}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "courier_circuit_breaker_state",
			Help: "Circuit breaker state per channel (0=closed, 1=half-open, 2=open)",
		}, []string{"channel"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courier_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ChannelAttempt implements dispatch.Recorder.
func (m *Metrics) ChannelAttempt(ch notification.Channel, delivered bool) {
	outcome := "failed"
	if delivered {
		outcome = "delivered"
	}
	m.channelAttempts.WithLabelValues(string(ch), outcome).Inc()
}

// BreakerStateChange records a circuit breaker transition.
func (m *Metrics) BreakerStateChange(ch notification.Channel, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(string(ch)).Set(stateToFloat(to))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Listener returns an event bus listener that counts task lifecycle events.
func (m *Metrics) Listener() eventbus.Listener {
	return func(e eventbus.Event) {
		switch e.Type {
		case eventbus.TaskDelivered:
			m.taskOutcomes.WithLabelValues("delivered").Inc()
		case eventbus.TaskUndelivered:
			m.taskOutcomes.WithLabelValues("undelivered").Inc()
		case eventbus.TaskDropped:
			m.taskOutcomes.WithLabelValues("dropped").Inc()
		case eventbus.TaskDeadLettered:
			m.taskOutcomes.WithLabelValues("dead_lettered").Inc()
		case eventbus.TaskRetryScheduled:
			m.retries.Inc()
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := strconv.Itoa(rec.status)
		m.httpRequests.WithLabelValues(r.Method, path, status).Inc()
		m.httpDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}
