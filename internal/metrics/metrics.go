// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showtalk_http_requests_total",
		Help: "HTTP requests by route, method and status class",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "showtalk_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	TreeBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "showtalk_comment_tree_build_seconds",
		Help:    "Time spent loading and assembling comment trees",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"kind"}) // kind: discussion, subthread

	TreeSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "showtalk_comment_tree_rows",
		Help:    "Comment rows loaded per tree build",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	CommentWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showtalk_comment_writes_total",
		Help: "Comment write operations by kind and outcome",
	}, []string{"op", "outcome"}) // op: create, vote, unvote, react, unreact, delete

	ActivityQueueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "showtalk_activity_queue_dropped_total",
		Help: "Discussion recounts skipped because the queue was full",
	})

	ActivityUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showtalk_activity_updates_total",
		Help: "Discussion recounts by outcome",
	}, []string{"outcome"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "showtalk_rate_limited_total",
		Help: "Requests rejected by the write rate limiter",
	})
)

// Outcome maps an error to a label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
