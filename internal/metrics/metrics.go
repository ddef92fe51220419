// Package metrics exposes Prometheus counters and histograms for the HTTP
// surface and the authentication flow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginSuccess = "success"
	LoginInvalid = "invalid_credentials"
	LoginError   = "error"
)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on the global one. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	logins         *prometheus.CounterVec
	registrations  prometheus.Counter
	tokensRejected prometheus.Counter
	messagesSent   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messagely_http_requests_total",
				Help: "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "messagely_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messagely_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messagely_registrations_total",
			Help: "Successful user registrations",
		}),
		tokensRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messagely_tokens_rejected_total",
			Help: "Bearer tokens that failed verification",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messagely_messages_sent_total",
			Help: "Messages stored",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.logins,
		m.registrations,
		m.tokensRejected,
		m.messagesSent,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

// TokenRejected satisfies access.RejectionObserver.
func (m *Metrics) TokenRejected() {
	if m == nil {
		return
	}
	m.tokensRejected.Inc()
}

func (m *Metrics) RecordMessageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}
