// Package metrics exposes Prometheus metrics for the HTTP API and the filter compiler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartfilter/internal/domain/filter"
)

const namespace = "smartfilter"

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	filtersApplied *prometheus.CounterVec
	filtersDropped *prometheus.CounterVec

	schemaInvalidations *prometheus.CounterVec
}

var _ filter.Observer = (*Metrics)(nil)

// New creates the collectors on a fresh registry, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		filtersApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filters_applied_total",
				Help:      "Predicates emitted by the filter compiler",
			},
			[]string{"model"},
		),
		filtersDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filters_dropped_total",
				Help:      "Filters skipped by the filter compiler",
			},
			[]string{"model", "reason"},
		),
		schemaInvalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schema_cache_invalidations_total",
				Help:      "Schema cache invalidations received over LISTEN/NOTIFY",
			},
			[]string{"table"},
		),
	}

	m.registry.MustRegister(
		m.httpRequestDuration,
		m.httpRequestsTotal,
		m.filtersApplied,
		m.filtersDropped,
		m.schemaInvalidations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records HTTP request duration and count. Paths are gin route
// patterns so entity names do not blow up label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// FiltersApplied implements filter.Observer.
func (m *Metrics) FiltersApplied(model string, n int) {
	if n > 0 {
		m.filtersApplied.WithLabelValues(model).Add(float64(n))
	}
}

// FilterDropped implements filter.Observer.
func (m *Metrics) FilterDropped(model, reason string) {
	m.filtersDropped.WithLabelValues(model, reason).Inc()
}

// SchemaInvalidated counts a schema cache invalidation. An empty table means all tables.
func (m *Metrics) SchemaInvalidated(table string) {
	if table == "" {
		table = "*"
	}
	m.schemaInvalidations.WithLabelValues(table).Inc()
}
