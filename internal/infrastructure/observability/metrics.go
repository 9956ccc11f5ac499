// Package observability exposes Prometheus metrics for lookups, aggregation,
// ledger cascades and the HTTP surface.
package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leetgroups/groupboard/internal/application/ledger"
	"github.com/leetgroups/groupboard/internal/domain/leaderboard"
	"github.com/leetgroups/groupboard/pkg/circuitbreaker"
)

const namespace = "groupboard"

// Metrics holds every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	lookups         *prometheus.CounterVec
	lookupDuration  *prometheus.HistogramVec
	aggregations    prometheus.Histogram
	aggregationSize prometheus.Histogram
	cascadeFailures *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

var (
	_ leaderboard.Observer   = (*Metrics)(nil)
	_ ledger.CascadeObserver = (*Metrics)(nil)
)

// NewMetrics creates the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "lookups_total",
			Help:      "Statistics provider lookups, labeled by outcome.",
		}, []string{"outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "lookup_duration_seconds",
			Help:      "Time spent on one statistics lookup, cache hits included.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"outcome"}),
		aggregations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "aggregation_duration_seconds",
			Help:      "Time spent building one leaderboard.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		aggregationSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "members",
			Help:      "Number of members per aggregated leaderboard.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		cascadeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "cascade_failures_total",
			Help:      "Failed steps of the group delete cascade, labeled by step.",
		}, []string{"step"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "circuit_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}, []string{"name"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, labeled by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, labeled by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.lookups,
		m.lookupDuration,
		m.aggregations,
		m.aggregationSize,
		m.cascadeFailures,
		m.breakerState,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// LookupFinished implements leaderboard.Observer.
func (m *Metrics) LookupFinished(outcome string, elapsed time.Duration) {
	m.lookups.WithLabelValues(outcome).Inc()
	m.lookupDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// AggregationFinished implements leaderboard.Observer.
func (m *Metrics) AggregationFinished(members int, elapsed time.Duration) {
	m.aggregations.Observe(elapsed.Seconds())
	m.aggregationSize.Observe(float64(members))
}

// CascadeStepFailed implements ledger.CascadeObserver. Per-member steps share
// one label value.
func (m *Metrics) CascadeStepFailed(step string) {
	kind, _, _ := strings.Cut(step, ":")
	m.cascadeFailures.WithLabelValues(kind).Inc()
}

// BreakerStateChanged records a circuit transition. Its signature matches the
// circuit breaker's state change callback.
func (m *Metrics) BreakerStateChanged(name string, _, to circuitbreaker.State) {
	m.breakerState.WithLabelValues(name).Set(float64(to))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
