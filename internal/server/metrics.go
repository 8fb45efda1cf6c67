package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cleared-dev/tally/internal/engine"
)

// Metrics collects Prometheus metrics for the report server.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	reportsTotal    *prometheus.CounterVec
	diagnostics     *prometheus.CounterVec
}

// NewMetrics creates a private registry with the server's metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tally_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_reports_total",
		Help: "Reports produced by kind and outcome.",
	}, []string{"kind", "outcome"})
	diagnostics := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_report_diagnostics_total",
		Help: "Diagnostics attached to produced reports, by diagnostic kind.",
	}, []string{"kind"})
	registry.MustRegister(requests, duration, reports, diagnostics)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		reportsTotal:    reports,
		diagnostics:     diagnostics,
	}
}

// Handler returns the /metrics handler.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Middleware records request count and duration per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) observe(rep *engine.Report) {
	m.reportsTotal.WithLabelValues(string(rep.Kind), "ok").Inc()
	for kind, n := range rep.Diagnostics.ByKind() {
		m.diagnostics.WithLabelValues(string(kind)).Add(float64(n))
	}
}

func (m *Metrics) failed(kind engine.Kind) {
	m.reportsTotal.WithLabelValues(string(kind), "error").Inc()
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
