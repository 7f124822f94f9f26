// Package observability holds the Prometheus metrics and OpenTelemetry
// tracer setup for the API server.
package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mommydata"

// =============================================================================
// METRICS
// =============================================================================

// Metrics groups the service collectors.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	StoreQueries *prometheus.HistogramVec
	StoreErrors  *prometheus.CounterVec
}

// DefaultMetrics is registered against the global registry by InitMetrics.
var DefaultMetrics *Metrics

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		StoreQueries: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Aggregate query latency by table.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"table"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_errors_total",
			Help:      "Failed aggregate queries by table.",
		}, []string{"table"}),
	}
}

// InitMetrics registers DefaultMetrics with the default registry. Safe to
// call more than once.
func InitMetrics() *Metrics {
	if DefaultMetrics == nil {
		DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	}
	return DefaultMetrics
}

// ObserveQuery records one store query. Its signature matches
// store.QueryObserver.
func (m *Metrics) ObserveQuery(table string, elapsed time.Duration, err error) {
	m.StoreQueries.WithLabelValues(table).Observe(elapsed.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(table).Inc()
	}
}

// Middleware records request count and latency. Unmatched routes are
// labelled "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
