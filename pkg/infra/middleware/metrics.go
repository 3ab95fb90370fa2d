package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	mwopts "github.com/kart-io/sentinel-docqa/pkg/options/middleware"
)

// MetricsCollector collects HTTP request metrics.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
	skipPath        string
}

// NewMetricsCollector creates the collectors and registers them on reg.
func NewMetricsCollector(opts *mwopts.MetricsOptions, reg prometheus.Registerer) *MetricsCollector {
	if opts == nil {
		opts = mwopts.NewMetricsOptions()
	}

	m := &MetricsCollector{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Subsystem: opts.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Subsystem: opts.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "path"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Subsystem: opts.Subsystem,
			Name:      "requests_active",
			Help:      "Current number of active requests.",
		}),
		skipPath: opts.Path,
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.activeRequests)
	return m
}

// Handler returns the gin middleware.
// Paths are labelled by route template so unmatched URLs share one series.
func (m *MetricsCollector) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == m.skipPath {
			c.Next()
			return
		}

		m.activeRequests.Inc()
		start := time.Now()
		defer m.activeRequests.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
