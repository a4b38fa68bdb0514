// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lifeos"

var (
	// JobRuns counts scheduled job runs by job name and outcome (ok, error).
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Scheduled job runs by job and outcome.",
	}, []string{"job", "outcome"})

	// JobItems counts the subscriptions a job looked at, by result.
	JobItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_items_total",
		Help:      "Items handled by scheduled jobs by job and result (processed, skipped, failed).",
	}, []string{"job", "result"})

	// JobDuration observes how long each job run takes.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of scheduled job runs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	// NotificationsSent counts notification deliveries by channel and result.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notification deliveries by channel and result (sent, failed, skipped).",
	}, []string{"channel", "result"})

	// HTTPRequests counts API requests by method, route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes API latency by method and route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// APIErrors counts error responses rendered by the error middleware, by code.
	APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_errors_total",
		Help:      "API error responses by error code.",
	}, []string{"code"})

	// ExpensesGenerated counts expenses created automatically, by source.
	ExpensesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generated_expenses_total",
		Help:      "Expenses generated from subscriptions and paid utility bills.",
	}, []string{"source"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
