// Package metrics defines the Prometheus instrumentation for the server.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rookery_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rookery_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Feed and thread metrics
var (
	FeedRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rookery_feed_requests_total",
		Help: "Total number of feed pages materialized",
	}, []string{"feed_type"})

	ThreadRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rookery_thread_requests_total",
		Help: "Total number of reply chains reconstructed",
	})
)

// Notification fan-out metrics
var (
	DeliveriesRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rookery_deliveries_recorded_total",
		Help: "Total number of notification deliveries recorded",
	}, []string{"type"})

	RecipientsFilteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rookery_recipients_filtered_total",
		Help: "Total number of recipients dropped by moderation filtering",
	})
)

// NormalizePath reduces high-cardinality path labels by replacing dynamic
// segments with placeholders. This keeps the metric label space bounded.
func NormalizePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) >= 2 && segments[0] == "api" {
		switch segments[1] {
		case "feed", "thread", "notifications":
			return "/api/" + segments[1]
		}
	}
	if len(segments) >= 2 && segments[0] == "internal" {
		return "/internal/" + segments[1]
	}
	return path
}
