package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entity_cache_hits_total",
		Help: "Total number of cache reads served from a fresh entry",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entity_cache_misses_total",
		Help: "Total number of cache reads that required a fetch",
	})

	CacheRefetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entity_cache_refetches_total",
		Help: "Total number of refetches triggered by stale entries with subscribers",
	})

	CacheInvalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entity_cache_invalidations_total",
		Help: "Total number of entries marked stale, by tag type",
	}, []string{"tag_type"})

	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "entity_cache_entries",
		Help: "Current number of entries held by the entity cache",
	})

	CacheFetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entity_cache_fetch_errors_total",
		Help: "Total number of fetches that ended in a transport or server error",
	})

	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart mutations, by mutation and outcome",
	}, []string{"mutation", "outcome"})

	MutationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_mutation_latency_seconds",
		Help:    "Latency of cart mutation round trips",
		Buckets: prometheus.DefBuckets,
	}, []string{"mutation"})

	QuantityGuardRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quantity_guard_rejections_total",
		Help: "Total number of quantity edits rejected before dispatch",
	})

	PriceDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_decisions_total",
		Help: "Total number of price resolutions, by decision kind",
	}, []string{"kind"})

	QuoteRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_requests_total",
		Help: "Total number of quote requests created",
	})

	InvalidationEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invalidation_events_total",
		Help: "Total number of mutation events handled by the invalidation worker",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
