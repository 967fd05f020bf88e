package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/IndieWebClubBlr/website/models"
	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const acceptHeader = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.8"

type download struct {
	body         []byte
	etag         string
	lastModified string
	notModified  bool
}

// hostLimiters spaces out requests to the same host across workers
type hostLimiters struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[string]*rate.Limiter
}

func newHostLimiters(interval time.Duration) *hostLimiters {
	return &hostLimiters{interval: interval, limiters: make(map[string]*rate.Limiter)}
}

func (h *hostLimiters) wait(ctx context.Context, host string) error {
	if h.interval <= 0 {
		return nil
	}

	h.mu.Lock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(h.interval), 1)
		h.limiters[host] = limiter
	}
	h.mu.Unlock()

	return limiter.Wait(ctx)
}

func failure(reason models.FailureReason, err error) *models.FetchFailure {
	return &models.FetchFailure{Reason: reason, Err: err}
}

// get downloads feedURL, retrying transient failures. A cached record with
// validators turns the request into a conditional one.
func (f *Fetcher) get(ctx context.Context, feedURL string, cached *models.CacheRecord) (*download, *models.FetchFailure) {
	u, err := url.Parse(feedURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, failure(models.FailureInvalidURL, fmt.Errorf("invalid feed URL %q", feedURL))
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.opts.RetryInterval
	b.MaxInterval = 10 * f.opts.RetryInterval
	b.MaxElapsedTime = f.opts.Timeout

	var result *download
	operation := func() error {
		if err := f.limiters.wait(ctx, u.Host); err != nil {
			return backoff.Permanent(failure(models.FailureNetwork, err))
		}

		d, ff, transient := f.request(ctx, feedURL, cached)
		if ff != nil {
			if transient {
				return ff
			}
			return backoff.Permanent(ff)
		}
		result = d
		return nil
	}

	notify := func(err error, wait time.Duration) {
		fetchRetries.Inc()
		log.WithFields(log.Fields{
			"feedUrl": feedURL,
			"error":   err,
			"wait":    wait,
		}).Debug("Retrying feed request")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.opts.Retries)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		var ff *models.FetchFailure
		if errors.As(err, &ff) {
			return nil, ff
		}
		return nil, failure(models.FailureNetwork, err)
	}

	return result, nil
}

// request performs a single attempt. The bool reports whether the failure
// is worth retrying.
func (f *Fetcher) request(ctx context.Context, feedURL string, cached *models.CacheRecord) (*download, *models.FetchFailure, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, failure(models.FailureInvalidURL, err), false
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", acceptHeader)
	if cached != nil {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, failure(models.FailureNetwork, err), ctx.Err() == nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && cached != nil:
		return &download{notModified: true, etag: cached.ETag, lastModified: cached.LastModified}, nil, false
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, failure(models.FailureHTTPStatus, fmt.Errorf("status %d", resp.StatusCode)), true
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, failure(models.FailureHTTPStatus, fmt.Errorf("status %d", resp.StatusCode)), false
	}

	limit := f.opts.MaxContentLength
	if resp.ContentLength > limit {
		return nil, failure(models.FailureTooLarge, fmt.Errorf("content length %d exceeds %d bytes", resp.ContentLength, limit)), false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, failure(models.FailureNetwork, err), ctx.Err() == nil
	}
	if int64(len(body)) > limit {
		return nil, failure(models.FailureTooLarge, fmt.Errorf("body exceeds %d bytes", limit)), false
	}

	return &download{
		body:         body,
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}, nil, false
}
