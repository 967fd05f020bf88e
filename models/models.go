package models

import (
	"time"
)

// FeedSource is one member feed listed in the outline document
type FeedSource struct {
	Title    string `json:"title"`
	FeedURL  string `json:"feedUrl"`
	SiteURL  string `json:"siteUrl,omitempty"`
	Position int    `json:"position"`
}

// HasSite reports whether the source links to a website
func (s FeedSource) HasSite() bool {
	return s.SiteURL != ""
}

// CacheRecord holds the raw body of the last successful fetch of a feed
type CacheRecord struct {
	FeedURL      string
	Content      []byte
	FetchedAt    time.Time
	ETag         string
	LastModified string
}

// Valid reports whether the record can be used in place of a network fetch
func (r CacheRecord) Valid() bool {
	return r.FeedURL != "" && len(r.Content) > 0 && !r.FetchedAt.IsZero()
}

// FeedEntry is a single normalized post taken from a member feed
type FeedEntry struct {
	SourceTitle string
	SourceURL   string
	SiteURL     string
	Title       string
	Link        string
	PublishedAt time.Time
	Summary     string
	Tags        []string
}

// AggregatedFeed is the merged list of entries, newest first
type AggregatedFeed struct {
	Entries []FeedEntry
}

// Len returns the number of entries in the feed
func (f AggregatedFeed) Len() int {
	return len(f.Entries)
}

type FailureReason string

const (
	FailureInvalidURL  FailureReason = "invalid_url"
	FailureNetwork     FailureReason = "network"
	FailureHTTPStatus  FailureReason = "http_status"
	FailureTooLarge    FailureReason = "too_large"
	FailureParse       FailureReason = "parse"
	FailureNoEntries   FailureReason = "no_entries"
	FailureAllFiltered FailureReason = "all_filtered"
)

// Describe returns a short human readable label for the reason
func (r FailureReason) Describe() string {
	switch r {
	case FailureInvalidURL:
		return "Invalid feed URL"
	case FailureNetwork:
		return "Network error"
	case FailureHTTPStatus:
		return "Unexpected HTTP status"
	case FailureTooLarge:
		return "Feed too large"
	case FailureParse:
		return "Could not parse feed"
	case FailureNoEntries:
		return "No entries in feed"
	case FailureAllFiltered:
		return "No recent entries"
	default:
		return string(r)
	}
}

// FetchFailure describes why a source contributed no entries
type FetchFailure struct {
	Reason FailureReason
	Err    error
}

func (f *FetchFailure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Err.Error()
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// FetchResult is the outcome of fetching and normalizing one source
type FetchResult struct {
	Source    FeedSource
	Entries   []FeedEntry
	Fetched   int // entries normalized before the age and count filters
	FromCache bool
	Failure   *FetchFailure
}

// Failed reports whether the source produced no entries
func (r FetchResult) Failed() bool {
	return r.Failure != nil
}

// WebringPick is the set of members chosen for a given day
type WebringPick struct {
	Day      string
	Current  FeedSource
	Previous FeedSource
	Next     FeedSource
}
