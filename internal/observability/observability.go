// Package observability exposes the engine's Prometheus metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_emails_sent_total",
		Help: "The total number of confirmed email sends",
	}, []string{"campaign"})

	EmailsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_emails_failed_total",
		Help: "The total number of recipient sends that exhausted their retries",
	}, []string{"campaign"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_jobs_processed_total",
		Help: "The total number of campaign jobs finalized",
	}, []string{"campaign", "status"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outreach_job_duration_seconds",
		Help:    "Wall-clock duration of one campaign job, all recipients included.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"campaign"})
)

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
