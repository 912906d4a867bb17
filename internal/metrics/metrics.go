// Package metrics exposes Prometheus metrics for the HTTP surface and for
// menu-specific events.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	Registrations    prometheus.Counter
	LoginFailures    prometheus.Counter
	MenuViews        prometheus.Counter
	MenuCacheLookups *prometheus.CounterVec
	QRCodesGenerated *prometheus.CounterVec
	CatalogMutations *prometheus.CounterVec
}

// New creates the metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "digimenu_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "digimenu_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		Registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "digimenu_registrations_total",
			Help: "Total number of restaurant accounts registered",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "digimenu_login_failures_total",
			Help: "Total number of rejected sign-in attempts",
		}),
		MenuViews: factory.NewCounter(prometheus.CounterOpts{
			Name: "digimenu_menu_views_total",
			Help: "Total number of public menu pages served",
		}),
		MenuCacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "digimenu_menu_cache_lookups_total",
			Help: "Public menu cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		QRCodesGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "digimenu_qr_codes_generated_total",
			Help: "QR codes rendered by disposition (inline, attachment)",
		}, []string{"disposition"}),
		CatalogMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "digimenu_catalog_mutations_total",
			Help: "Catalog changes by entity (category, item, restaurant) and action",
		}, []string{"entity", "action"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency, labelled with the chi route
// pattern so path parameters don't explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// IncrementRegistrations records a new restaurant account.
func (m *Metrics) IncrementRegistrations() {
	if m != nil {
		m.Registrations.Inc()
	}
}

// IncrementLoginFailures records a rejected sign-in.
func (m *Metrics) IncrementLoginFailures() {
	if m != nil {
		m.LoginFailures.Inc()
	}
}

// IncrementMenuViews records a public menu page view.
func (m *Metrics) IncrementMenuViews() {
	if m != nil {
		m.MenuViews.Inc()
	}
}

// ObserveMenuCache records a cache lookup result: "hit", "miss" or "error".
func (m *Metrics) ObserveMenuCache(result string) {
	if m != nil {
		m.MenuCacheLookups.WithLabelValues(result).Inc()
	}
}

// IncrementQRCodes records a rendered QR code.
func (m *Metrics) IncrementQRCodes(disposition string) {
	if m != nil {
		m.QRCodesGenerated.WithLabelValues(disposition).Inc()
	}
}

// IncrementCatalogMutation records a create, update or delete.
func (m *Metrics) IncrementCatalogMutation(entity, action string) {
	if m != nil {
		m.CatalogMutations.WithLabelValues(entity, action).Inc()
	}
}
