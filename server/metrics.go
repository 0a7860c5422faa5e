package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Metrics holds the server side Prometheus metrics.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
	Logins          *prometheus.CounterVec
	Refreshes       *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careportal_http_requests_total",
			Help: "HTTP requests served, by method, route pattern and status code",
		}, []string{"method", "route", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "careportal_http_request_duration_seconds",
			Help:    "Duration of HTTP requests, by method and route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "careportal_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careportal_logins_total",
			Help: "Login attempts, by outcome",
		}, []string{"outcome"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careportal_session_refreshes_total",
			Help: "Refresh token exchanges, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) observeRequest(method, route string, code int, elapsed time.Duration) {
	if code == 0 {
		code = http.StatusOK
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// outcome classifies a service error for the login and refresh counters.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case statusFor(err) < http.StatusInternalServerError:
		return outcomeRejected
	}
	return outcomeError
}
