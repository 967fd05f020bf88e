// Package fetcher retrieves member feeds and normalizes their entries.
//
// A fetch never fails past this package: every problem with a source is
// reported as a models.FetchFailure on the result and logged as a warning.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/IndieWebClubBlr/website/cache"
	"github.com/IndieWebClubBlr/website/models"
	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

// Fetcher fetches one source at a time and is safe for concurrent use
type Fetcher struct {
	opts     Options
	cache    cache.Cache
	client   *http.Client
	limiters *hostLimiters

	// Now returns the current time; replaced in tests
	Now func() time.Time
}

func New(opts Options, c cache.Cache) *Fetcher {
	opts = opts.withDefaults()
	if c == nil {
		c = cache.Disabled{}
	}

	return &Fetcher{
		opts:     opts,
		cache:    c,
		client:   &http.Client{Timeout: opts.Timeout},
		limiters: newHostLimiters(opts.HostInterval),
		Now:      time.Now,
	}
}

// WithClient replaces the HTTP client used for requests
func (f *Fetcher) WithClient(client *http.Client) *Fetcher {
	f.client = client
	return f
}

type content struct {
	body      []byte
	fetchedAt time.Time
	fromCache bool
	// record to store once the body parses, nil when nothing changed
	record *models.CacheRecord
}

// Fetch retrieves, parses and normalizes one source
func (f *Fetcher) Fetch(ctx context.Context, source models.FeedSource) models.FetchResult {
	start := time.Now()
	defer func() {
		fetchDuration.Observe(time.Since(start).Seconds())
	}()

	result := models.FetchResult{Source: source}

	c, ff := f.retrieve(ctx, source)
	if ff != nil {
		return f.fail(result, ff)
	}
	result.FromCache = c.fromCache

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(c.body))
	if err != nil && c.fromCache {
		// A cached body that no longer parses counts as a miss
		cacheOutcomes.WithLabelValues(cacheCorrupt).Inc()
		log.WithFields(log.Fields{
			"feedUrl": source.FeedURL,
			"error":   err,
		}).Warn("Cached feed is unreadable, fetching again")

		c, ff = f.download(ctx, source, nil)
		if ff != nil {
			return f.fail(result, ff)
		}
		result.FromCache = false
		feed, err = gofeed.NewParser().Parse(bytes.NewReader(c.body))
	}
	if err != nil {
		return f.fail(result, failure(models.FailureParse, err))
	}

	if c.record != nil {
		if err := f.cache.Put(ctx, *c.record); err != nil {
			log.WithFields(log.Fields{
				"feedUrl": source.FeedURL,
				"error":   err,
			}).Warn("Failed to update fetch cache")
		}
	}

	entries := f.normalize(feed, source, c.fetchedAt)
	result.Fetched = len(entries)
	if len(entries) == 0 {
		return f.fail(result, failure(models.FailureNoEntries, fmt.Errorf("feed has no usable entries")))
	}

	result.Entries = f.filter(entries, f.Now())
	if len(result.Entries) == 0 {
		return f.fail(result, failure(models.FailureAllFiltered, fmt.Errorf("all %d entries are outside the age window", len(entries))))
	}

	fetchResults.WithLabelValues("ok").Inc()
	entriesNormalized.Add(float64(len(result.Entries)))

	log.WithFields(log.Fields{
		"title":     source.Title,
		"entries":   len(result.Entries),
		"fetched":   result.Fetched,
		"fromCache": result.FromCache,
	}).Info("Processed feed")

	return result
}

// retrieve returns the feed body from the cache or the network
func (f *Fetcher) retrieve(ctx context.Context, source models.FeedSource) (*content, *models.FetchFailure) {
	now := f.Now()

	cached, ok := f.cache.Get(ctx, source.FeedURL)
	if ok && now.Sub(cached.FetchedAt) < f.opts.FreshnessWindow {
		cacheOutcomes.WithLabelValues(cacheFresh).Inc()
		log.WithFields(log.Fields{
			"feedUrl":   source.FeedURL,
			"fetchedAt": cached.FetchedAt,
		}).Debug("Using cached feed")
		return &content{body: cached.Content, fetchedAt: cached.FetchedAt, fromCache: true}, nil
	}

	var conditional *models.CacheRecord
	if ok {
		if cached.ETag != "" || cached.LastModified != "" {
			conditional = cached
		} else {
			cacheOutcomes.WithLabelValues(cacheStale).Inc()
		}
	} else {
		cacheOutcomes.WithLabelValues(cacheMiss).Inc()
	}

	return f.download(ctx, source, conditional)
}

// download fetches the feed body over the network. With a conditional
// record the request carries its validators and a 304 reuses its body.
func (f *Fetcher) download(ctx context.Context, source models.FeedSource, conditional *models.CacheRecord) (*content, *models.FetchFailure) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	log.WithFields(log.Fields{
		"feedUrl":     source.FeedURL,
		"conditional": conditional != nil,
	}).Debug("Fetching feed")

	d, ff := f.get(ctx, source.FeedURL, conditional)
	if ff != nil {
		return nil, ff
	}

	fetchedAt := f.Now().UTC()
	if d.notModified {
		cacheOutcomes.WithLabelValues(cacheRevalidated).Inc()
		record := *conditional
		record.FetchedAt = fetchedAt
		return &content{body: record.Content, fetchedAt: fetchedAt, fromCache: true, record: &record}, nil
	}

	if conditional != nil {
		cacheOutcomes.WithLabelValues(cacheStale).Inc()
	}

	return &content{
		body:      d.body,
		fetchedAt: fetchedAt,
		record: &models.CacheRecord{
			FeedURL:      source.FeedURL,
			Content:      d.body,
			FetchedAt:    fetchedAt,
			ETag:         d.etag,
			LastModified: d.lastModified,
		},
	}, nil
}

func (f *Fetcher) fail(result models.FetchResult, ff *models.FetchFailure) models.FetchResult {
	result.Entries = nil
	result.Failure = ff
	fetchResults.WithLabelValues(string(ff.Reason)).Inc()

	log.WithFields(log.Fields{
		"title":   result.Source.Title,
		"feedUrl": result.Source.FeedURL,
		"reason":  ff.Reason,
		"error":   ff.Err,
	}).Warn("Feed failed")

	return result
}
