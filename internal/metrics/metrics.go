package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hegemony"

// Outcomes of one engine computation
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// Metrics holds the prometheus collectors of the service.
// Each instance owns its registry so tests and multiple servers never collide.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Metrics struct {
	registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	computations     *prometheus.CounterVec
	degenerateWindow *prometheus.CounterVec
	snapshotRows     *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Engine computations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		degenerateWindow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "window_resolutions_total",
			Help:      "Date window resolutions by kind (normal, fallback, degenerate).",
		}, []string{"kind"}),
		snapshotRows: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_rows",
			Help:      "Snapshot rows loaded per computation.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}, []string{"operation"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result (hit, miss, disabled, error).",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.computations,
		m.degenerateWindow,
		m.snapshotRows,
		m.cacheLookups,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(route, method, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, code).Observe(elapsed.Seconds())
}

// Computation records the outcome of one engine operation
func (m *Metrics) Computation(operation, outcome string) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(operation, outcome).Inc()
}

// Window records how a date window was resolved
func (m *Metrics) Window(fallback, degenerate bool) {
	if m == nil {
		return
	}
	kind := "normal"
	switch {
	case degenerate:
		kind = "degenerate"
	case fallback:
		kind = "fallback"
	}
	m.degenerateWindow.WithLabelValues(kind).Inc()
}

// SnapshotRows records the size of one batched snapshot load
func (m *Metrics) SnapshotRows(operation string, rows int) {
	if m == nil {
		return
	}
	m.snapshotRows.WithLabelValues(operation).Observe(float64(rows))
}

// CacheLookup records one response cache lookup
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
