package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gateway_requests_total", Help: "Total requests by route, method and status"},
		[]string{"route", "method", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "gateway_request_duration_seconds", Help: "Request latency by route", Buckets: prometheus.DefBuckets},
		[]string{"route"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gateway_webhook_events_total", Help: "Stripe webhook events by type and outcome"},
		[]string{"type", "outcome"},
	)
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "gateway_rate_limited_total", Help: "Requests rejected by the rate limiter"},
	)
)

var registerOnce sync.Once

// Register adds the gateway collectors to the default registry. Safe to call
// from every entry point.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Requests, RequestDuration, WebhookEvents, RateLimited)
	})
}
