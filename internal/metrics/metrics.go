package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labdesk_cache_lookups_total",
		Help: "Resource cache lookups by resource and result (hit, miss).",
	}, []string{"resource", "result"})

	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labdesk_cache_invalidations_total",
		Help: "Cache prefix invalidations after mutating calls.",
	}, []string{"resource"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labdesk_upstream_requests_total",
		Help: "Requests sent to the lab backend by method and status code.",
	}, []string{"method", "code"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "labdesk_upstream_request_seconds",
		Help:    "Latency of requests to the lab backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labdesk_token_refreshes_total",
		Help: "Access token refresh attempts by outcome.",
	}, []string{"outcome"})

	CalendarSourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labdesk_calendar_source_failures_total",
		Help: "Calendar sources that failed and were replaced by an empty list.",
	}, []string{"source"})

	CalendarSkippedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labdesk_calendar_skipped_records_total",
		Help: "Source records dropped for missing or unparseable dates.",
	}, []string{"source"})
)
