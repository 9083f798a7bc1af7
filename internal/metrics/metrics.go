// Package metrics exposes Prometheus counters for storefront outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics holds the storefront collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	sessions     *prometheus.CounterVec
	checkouts    *prometheus.CounterVec
	mirrorErrors *prometheus.CounterVec
	cartLoads    *prometheus.CounterVec
	requests     *prometheus.HistogramVec
}

// New registers the storefront collectors plus Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_resolutions_total",
			Help:      "Session resolutions by outcome.",
		}, []string{"outcome"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_attempts_total",
			Help:      "Checkout attempts by provider and final state.",
		}, []string{"provider", "state", "kind"}),
		mirrorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mirror_failures_total",
			Help:      "Cart mirror writes to the backend that failed.",
		}, []string{"op"}),
		cartLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_loads_total",
			Help:      "Cart loads by source.",
		}, []string{"source"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Storefront HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sessions, m.checkouts, m.mirrorErrors, m.cartLoads, m.requests,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SessionResolved counts one Resolve call.
func (m *Metrics) SessionResolved(authenticated bool) {
	outcome := "guest"
	if authenticated {
		outcome = "authenticated"
	}
	m.sessions.WithLabelValues(outcome).Inc()
}

// CheckoutFinished counts one checkout attempt. kind is empty on success.
func (m *Metrics) CheckoutFinished(provider, state, kind string) {
	m.checkouts.WithLabelValues(provider, state, kind).Inc()
}

// MirrorFailed counts one failed backend cart write.
func (m *Metrics) MirrorFailed(op string) {
	m.mirrorErrors.WithLabelValues(op).Inc()
}

// CartLoaded counts one cart load by the source that served it.
func (m *Metrics) CartLoaded(source string) {
	m.cartLoads.WithLabelValues(source).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.requests.WithLabelValues(method, route, status).Observe(seconds)
}
