package middleware

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MiddlewareMetrics holds Prometheus metrics for middleware operations.
type MiddlewareMetrics struct {
	requestsTotal *prometheus.CounterVec

	rateLimitAllowed  *prometheus.CounterVec
	rateLimitRejected *prometheus.CounterVec

	apiKeyRejected    prometheus.Counter
	bodyLimitRejected prometheus.Counter
	panicsRecovered   prometheus.Counter

	sessionsExpired prometheus.Counter
}

var (
	middlewareMetrics     *MiddlewareMetrics
	middlewareMetricsOnce sync.Once
)

// GetMiddlewareMetrics returns the singleton middleware metrics
// instance.
func GetMiddlewareMetrics() *MiddlewareMetrics {
	middlewareMetricsOnce.Do(func() {
		middlewareMetrics = newMiddlewareMetrics()
	})
	return middlewareMetrics
}

func newMiddlewareMetrics() *MiddlewareMetrics {
	return &MiddlewareMetrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storegw",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of completed HTTP requests by status class",
			},
			[]string{"status_class"},
		),
		rateLimitAllowed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storegw",
				Subsystem: "middleware",
				Name:      "rate_limit_allowed_total",
				Help:      "Total number of requests allowed by the rate limiter",
			},
			[]string{"class"},
		),
		rateLimitRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storegw",
				Subsystem: "middleware",
				Name:      "rate_limit_rejected_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
			[]string{"class"},
		),
		apiKeyRejected: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "storegw",
				Subsystem: "middleware",
				Name:      "api_key_rejected_total",
				Help:      "Total number of requests rejected for a bad API key",
			},
		),
		bodyLimitRejected: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "storegw",
				Subsystem: "middleware",
				Name:      "body_limit_rejected_total",
				Help:      "Total number of requests rejected for an oversized body",
			},
		),
		panicsRecovered: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "storegw",
				Subsystem: "middleware",
				Name:      "panics_recovered_total",
				Help:      "Total number of panics recovered in handlers",
			},
		),
		sessionsExpired: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "storegw",
				Subsystem: "session",
				Name:      "expired_total",
				Help:      "Total number of requests rejected for an expired session",
			},
		),
	}
}

// RecordSessionExpired increments the expired-session counter. Exposed
// for the identity layer, which lives outside this package.
func RecordSessionExpired() {
	GetMiddlewareMetrics().sessionsExpired.Inc()
}
