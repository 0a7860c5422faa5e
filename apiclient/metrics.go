package apiclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	retryResent    = "resent"
	retryRejected  = "rejected"
	retryAbandoned = "abandoned"
)

// Metrics holds the client side Prometheus metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Refreshes       *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	RefreshWaiters  prometheus.Histogram
	Retries         *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careportal_client_requests_total",
			Help: "HTTP attempts made by the API client, by method and status code (0 for transport failures)",
		}, []string{"method", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "careportal_client_request_duration_seconds",
			Help:    "Duration of HTTP attempts made by the API client",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careportal_client_session_refreshes_total",
			Help: "Session renewals issued, by outcome",
		}, []string{"outcome"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "careportal_client_session_refresh_duration_seconds",
			Help:    "Time from the first 401 to the renewal settling",
			Buckets: prometheus.DefBuckets,
		}),
		RefreshWaiters: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "careportal_client_session_refresh_waiters",
			Help:    "Requests released by one renewal",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careportal_client_retries_total",
			Help: "Requests that hit a 401, by what happened next",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeRequest(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRefresh(ok bool, elapsed time.Duration, waiters int) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.Refreshes.WithLabelValues(outcome).Inc()
	m.RefreshDuration.Observe(elapsed.Seconds())
	m.RefreshWaiters.Observe(float64(waiters))
}

func (m *Metrics) observeRetry(result string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(result).Inc()
}
