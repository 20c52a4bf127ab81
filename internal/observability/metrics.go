package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics exposed by the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ordersFinalized prometheus.Counter
	importsCommitted prometheus.Counter
	jobRuns         *prometheus.CounterVec
	overdueGauge    *prometheus.GaugeVec
	lowStockGauge   prometheus.Gauge
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "garagehub_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "garagehub_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	ordersFinalized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "garagehub_service_orders_finalized_total",
		Help: "Service orders finalized since start.",
	})
	importsCommitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "garagehub_stock_imports_committed_total",
		Help: "Invoice imports committed since start.",
	})
	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "garagehub_jobs_total",
		Help: "Background job executions by task and outcome.",
	}, []string{"task", "outcome"})
	overdue := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "garagehub_overdue_transactions",
		Help: "Pending ledger transactions past their due date, by type.",
	}, []string{"type"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "garagehub_low_stock_products",
		Help: "Products at or below the configured stock threshold.",
	})
	registry.MustRegister(requests, duration, ordersFinalized, importsCommitted, jobRuns, overdue, lowStock)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		ordersFinalized:  ordersFinalized,
		importsCommitted: importsCommitted,
		jobRuns:          jobRuns,
		overdueGauge:     overdue,
		lowStockGauge:    lowStock,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// OrderFinalized increments the finalized order counter.
func (m *Metrics) OrderFinalized() {
	if m != nil {
		m.ordersFinalized.Inc()
	}
}

// ImportCommitted increments the committed import counter.
func (m *Metrics) ImportCommitted() {
	if m != nil {
		m.importsCommitted.Inc()
	}
}

// JobRun records one background job execution.
func (m *Metrics) JobRun(task, outcome string) {
	if m != nil {
		m.jobRuns.WithLabelValues(task, outcome).Inc()
	}
}

// SetOverdue publishes the overdue transaction count for a ledger type.
func (m *Metrics) SetOverdue(txType string, count int) {
	if m != nil {
		m.overdueGauge.WithLabelValues(txType).Set(float64(count))
	}
}

// SetLowStock publishes the low stock product count.
func (m *Metrics) SetLowStock(count int) {
	if m != nil {
		m.lowStockGauge.Set(float64(count))
	}
}

// Registerer exposes the registry so callers can register custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
