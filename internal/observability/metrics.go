// Package observability exposes Prometheus metrics for the API.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the custom PrepHub collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthEventsTotal *prometheus.CounterVec
	RateLimited     prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a private registry with the Go and process collectors
// plus the PrepHub metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prephub_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prephub_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prephub_auth_events_total",
				Help: "Registration and login attempts by outcome",
			},
			[]string{"event", "outcome"},
		),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prephub_login_rate_limited_total",
			Help: "Login requests rejected by the per-client rate limiter",
		}),
		registry: registry,
	}

	registry.MustRegister(m.RequestsTotal, m.RequestDuration, m.AuthEventsTotal, m.RateLimited)
	return m
}

// AuthEvent counts one register or login attempt.
func (m *Metrics) AuthEvent(event, outcome string) {
	m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// LimitHit counts a rate-limited request.
func (m *Metrics) LimitHit() {
	m.RateLimited.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
