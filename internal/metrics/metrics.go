// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes
const (
	OutcomeOK            = "ok"
	OutcomeNoCandidates  = "no_candidates"
	OutcomeParseFailure  = "parse_failure"
	OutcomeOracleFailure = "oracle_failure"
	OutcomeFallback      = "fallback"
	OutcomeRejected      = "rejected"
	OutcomeFailed        = "failed"
)

// Metrics groups the application's collectors. A nil *Metrics is valid and
// records nothing, which keeps tests free of registries.
type Metrics struct {
	registry        *prometheus.Registry
	generations     *prometheus.CounterVec
	oracleLatency   *prometheus.HistogramVec
	activityActions *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinysteps",
			Name:      "generations_total",
			Help:      "AI generation requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		oracleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tinysteps",
			Name:      "oracle_duration_seconds",
			Help:      "Time spent waiting for the AI model.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"kind"}),
		activityActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinysteps",
			Name:      "activity_actions_total",
			Help:      "Save, discard, restore and history writes by outcome.",
		}, []string{"action", "outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinysteps",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tinysteps",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Generation counts one generation request
func (m *Metrics) Generation(kind, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(kind, outcome).Inc()
}

// OracleCall records how long a model call took
func (m *Metrics) OracleCall(kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.oracleLatency.WithLabelValues(kind).Observe(took.Seconds())
}

// ActivityAction counts one activity write attempt
func (m *Metrics) ActivityAction(action, outcome string) {
	if m == nil {
		return
	}
	m.activityActions.WithLabelValues(action, outcome).Inc()
}

// HTTPRequest records a finished request
func (m *Metrics) HTTPRequest(method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(took.Seconds())
}
