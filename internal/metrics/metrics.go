// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	URLsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shortcode",
			Name:      "urls_created_total",
			Help:      "Number of new short codes persisted",
		},
	)

	Redirects = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shortcode",
			Name:      "redirects_total",
			Help:      "Number of short codes resolved to their original URL",
		},
	)

	CodeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shortcode",
			Name:      "code_collisions_total",
			Help:      "Number of generated short codes rejected because they were already taken",
		},
	)

	ClickFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shortcode",
			Name:      "click_failures_total",
			Help:      "Number of click increments that could not be applied",
		},
	)
)
