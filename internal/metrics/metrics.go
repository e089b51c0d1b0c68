package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coffee_configurator"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// MediaCacheLookups: kind = main|design|gallery, result = hit|miss|fetched|failed
	MediaCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_cache_lookups_total",
			Help:      "Media cache lookups by image kind and result.",
		},
		[]string{"kind", "result"},
	)

	ExternalCallFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_call_failures_total",
			Help:      "Failed calls to external services (seafile, ozon, telegram, download).",
		},
		[]string{"service"},
	)

	LeadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_total",
			Help:      "Accepted leads by notification outcome.",
		},
		[]string{"notified"},
	)

	ImportedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Imported machine rows by outcome (created, updated, skipped).",
		},
		[]string{"outcome"},
	)
)
