package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// Metrics holds the Prometheus metrics of the HTTP API. A nil *Metrics
// records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
	auth     *prometheus.CounterVec
	health   *prometheus.CounterVec
}

// NewMetrics creates the API metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	route := []string{"method", "endpoint"}

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arraydb_http_requests_total",
			Help: "HTTP requests served, by route and status code",
		}, append(route, "status_code")),

		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arraydb_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, route),

		inFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arraydb_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}, route),

		auth: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arraydb_auth_requests_total",
			Help: "Requests that presented an API key, by outcome",
		}, []string{"status"}),

		health: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arraydb_health_checks_total",
			Help: "Health checks answered, by outcome",
		}, []string{"status"}),
	}
}

// RecordHealthCheck counts a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	if m == nil {
		return
	}
	m.health.WithLabelValues(statusLabel(success)).Inc()
}

// InstrumentHandler wraps handler so every call is counted and timed under
// the route pattern
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		gauge := m.inFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		handler(ww, r)

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		m.requests.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
		m.latency.WithLabelValues(method, endpoint).Observe(time.Since(started).Seconds())
	}
}

// InstrumentAuthMiddleware counts the outcome of requests that carried an
// API key through next
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return func(h http.Handler) http.Handler {
		inner := next(h)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-API-Key") == "" {
				inner.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			inner.ServeHTTP(ww, r)
			m.auth.WithLabelValues(statusLabel(ww.Status() != http.StatusUnauthorized)).Inc()
		})
	}
}
