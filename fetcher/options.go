package fetcher

import "time"

// Options control how a single feed is fetched and normalized
type Options struct {
	UserAgent        string
	Timeout          time.Duration // hard limit for one source, retries included
	Retries          int
	RetryInterval    time.Duration
	MaxContentLength int64
	HostInterval     time.Duration // minimum gap between requests to one host
	FreshnessWindow  time.Duration

	MaxFeedEntries int
	MaxAge         time.Duration
	MaxFutureSkew  time.Duration
	MaxTags        int
	SummaryLength  int
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = "blr.indiewebclub.org generator"
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 500 * time.Millisecond
	}
	if o.MaxContentLength <= 0 {
		o.MaxContentLength = 5 * 1024 * 1024
	}
	return o
}
