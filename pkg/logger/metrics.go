package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics shared by the dashboard services

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors",
		},
		[]string{"service", "error_type"},
	)

	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ictdash_feed_fetch_total",
			Help: "Bar fetches by granularity and outcome",
		},
		[]string{"granularity", "outcome"},
	)

	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ictdash_feed_fetch_duration_seconds",
			Help:    "Duration of upstream bar fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"granularity"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ictdash_cache_lookups_total",
			Help: "Bar cache lookups by backend and result",
		},
		[]string{"backend", "result"},
	)

	ComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ictdash_compute_duration_seconds",
			Help:    "Duration of snapshot computation in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	PollRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ictdash_poll_runs_total",
			Help: "Poll cycles by outcome",
		},
		[]string{"outcome"},
	)

	LastSnapshotTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ictdash_last_snapshot_timestamp_seconds",
			Help: "Unix time of the latest published snapshot",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ictdash_ws_connections",
			Help: "Open WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ictdash_ws_messages_sent_total",
			Help: "WebSocket messages sent by type",
		},
		[]string{"type"},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ictdash_ws_messages_dropped_total",
			Help: "WebSocket messages dropped because a client send buffer was full",
		},
	)
)
