package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogroll_feed_fetches_total",
		Help: "Feed fetches by result, either ok or the failure reason",
	}, []string{"result"})

	cacheOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogroll_feed_cache_total",
		Help: "Fetch cache lookups by outcome",
	}, []string{"outcome"})

	fetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blogroll_feed_fetch_retries_total",
		Help: "Retried feed requests after a transient failure",
	})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blogroll_feed_fetch_duration_seconds",
		Help:    "Time spent fetching and normalizing a single feed",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms up to ~40s
	})

	entriesNormalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blogroll_feed_entries_total",
		Help: "Entries kept after normalization and filtering",
	})
)

const (
	cacheFresh       = "fresh"
	cacheRevalidated = "revalidated"
	cacheStale       = "stale"
	cacheMiss        = "miss"
	cacheCorrupt     = "corrupt"
)
