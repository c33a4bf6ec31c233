// Package metrics defines the Prometheus collectors for the report server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm/sqlreport/internal/compiler"
)

// Namespace prefixes every metric name.
const Namespace = "sqlreport"

// Compile outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
)

// Metrics holds the collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	compiles        *prometheus.CounterVec
	dropped         *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	catalogFetches  *prometheus.CounterVec
	reportRows      prometheus.Histogram
}

// New creates collectors on a fresh registry, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "compiles_total",
				Help:      "Report requests compiled, by outcome",
			},
			[]string{"outcome"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "dropped_total",
				Help:      "Request parts skipped during compilation, by kind",
			},
			[]string{"kind"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served, by route and status",
			},
			[]string{"route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"route"},
		),
		catalogFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "catalog_fetches_total",
				Help:      "Catalog queries issued on cache misses, by resource and status",
			},
			[]string{"resource", "status"},
		),
		reportRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "report_rows",
				Help:      "Rows returned per executed report",
				Buckets:   []float64{0, 1, 10, 100, 1000, 10000, 100000},
			},
		),
	}

	m.registry.MustRegister(
		m.compiles,
		m.dropped,
		m.requests,
		m.requestDuration,
		m.catalogFetches,
		m.reportRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCompile records a compile outcome and the plan's dropped parts.
// plan is nil when compilation failed.
func (m *Metrics) ObserveCompile(plan *compiler.Plan, err error) {
	if err != nil {
		m.compiles.WithLabelValues(OutcomeInvalid).Inc()
		return
	}
	m.compiles.WithLabelValues(OutcomeOK).Inc()
	for _, d := range plan.Dropped {
		m.dropped.WithLabelValues(string(d.Kind)).Inc()
	}
}

// ObserveRequest records a served HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveCatalogFetch records a catalog query. Its signature matches
// catalog.WithFetchObserver.
func (m *Metrics) ObserveCatalogFetch(resource string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.catalogFetches.WithLabelValues(resource, status).Inc()
}

// ObserveRows records the size of an executed report.
func (m *Metrics) ObserveRows(n int) {
	m.reportRows.Observe(float64(n))
}
