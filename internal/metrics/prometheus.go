// Package metrics provides Prometheus metrics for the console server.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Backend request results.
const (
	ResultOK          = "ok"
	ResultClientError = "client_error"
	ResultServerError = "server_error"
	ResultUnreachable = "unreachable"
)

// Auth events.
const (
	AuthLogin       = "login"
	AuthLoginFailed = "login_failed"
	AuthLogout      = "logout"
	AuthExpired     = "session_expired"
	AuthRateLimited = "rate_limited"
)

// Metrics holds the server's collectors.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	AuthEvents      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Registering
// twice on the same registry fails.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_http_requests_total",
				Help: "HTTP requests served, by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aegis_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		BackendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_backend_requests_total",
				Help: "Requests forwarded to the rental backend, by result.",
			},
			[]string{"result"},
		),
		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aegis_backend_request_duration_seconds",
				Help:    "Latency of requests forwarded to the rental backend.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"result"},
		),
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_auth_events_total",
				Help: "Login, logout and session expiry events.",
			},
			[]string{"event"},
		),
	}

	for _, c := range []prometheus.Collector{m.Requests, m.RequestDuration, m.BackendRequests, m.BackendDuration, m.AuthEvents} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

// RecordRequest counts one served request.
func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordBackend counts one forwarded request. status is 0 when the backend
// could not be reached.
func (m *Metrics) RecordBackend(status int, d time.Duration) {
	if m == nil {
		return
	}
	result := BackendResult(status)
	m.BackendRequests.WithLabelValues(result).Inc()
	m.BackendDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordAuth counts an auth event.
func (m *Metrics) RecordAuth(event string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event).Inc()
}

// Middleware records every request that passes through the router, labelled
// by matched route so path parameters do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.RecordRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// BackendResult buckets a backend status code.
func BackendResult(status int) string {
	switch {
	case status == 0:
		return ResultUnreachable
	case status >= 500:
		return ResultServerError
	case status >= 400:
		return ResultClientError
	default:
		return ResultOK
	}
}
