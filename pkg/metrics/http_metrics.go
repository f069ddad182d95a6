package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics holds the request collectors and the registry they are exposed from.
// Each instance owns its registry so several apps (tests) can coexist in one process.
type HTTPMetrics struct {
	ServiceName string
	Registry    *prometheus.Registry

	RequestCounter           *prometheus.CounterVec
	RequestDurationHistogram *prometheus.HistogramVec
	StatusCodeCategory       *prometheus.CounterVec

	// Domain counters
	OrderTransitions *prometheus.CounterVec
	StockConflicts   *prometheus.CounterVec
	EnrichFailures   prometheus.Counter
}

// NewHTTPMetrics creates a metrics collector for a service. prefix namespaces every metric.
func NewHTTPMetrics(serviceName, prefix string) *HTTPMetrics {
	m := &HTTPMetrics{
		ServiceName: serviceName,
		Registry:    prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		RequestDurationHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: prefix,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		StatusCodeCategory: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "http_status_category_total",
				Help:      "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"service", "category", "method", "path"},
		),
		OrderTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "order_transitions_total",
				Help:      "Orders entering each status",
			},
			[]string{"store", "status"},
		),
		StockConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "stock_conflicts_total",
				Help:      "Order lines rejected for insufficient stock",
			},
			[]string{"store", "scope"},
		),
		EnrichFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: prefix,
				Name:      "barcode_enrich_failures_total",
				Help:      "Barcode lookups that failed upstream",
			},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestCounter,
		m.RequestDurationHistogram,
		m.StatusCodeCategory,
		m.OrderTransitions,
		m.StockConflicts,
		m.EnrichFailures,
	)
	return m
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// Middleware records request count, status category and latency per route.
func (m *HTTPMetrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		method := c.Method()
		path := c.Route().Path
		statusStr := strconv.Itoa(status)

		m.RequestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
		if category := statusCategory(status); category != "" {
			m.StatusCodeCategory.WithLabelValues(m.ServiceName, category, method, path).Inc()
		}
		m.RequestDurationHistogram.WithLabelValues(m.ServiceName, method, path, statusStr).
			Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *HTTPMetrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

func (m *HTTPMetrics) OrderTransition(store, status string) {
	m.OrderTransitions.WithLabelValues(store, status).Inc()
}

func (m *HTTPMetrics) StockConflict(store, scope string) {
	m.StockConflicts.WithLabelValues(store, scope).Inc()
}

func (m *HTTPMetrics) EnrichFailed() {
	m.EnrichFailures.Inc()
}
