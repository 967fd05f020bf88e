// Package aggregate merges per-source entries into one ordered feed.
package aggregate

import (
	"sort"
	"strings"

	"github.com/IndieWebClubBlr/website/models"
	"github.com/samber/lo"
)

// Options limit the size of an aggregated feed. Zero means unlimited.
type Options struct {
	MaxEntries     int
	PerSourceLimit int // newest entries kept per source
}

// Aggregate flattens perSource in source order, keeps the first occurrence
// of every link, and sorts newest first. Entries with equal timestamps keep
// source order and then document order.
func Aggregate(perSource [][]models.FeedEntry, opts Options) models.AggregatedFeed {
	entries := lo.UniqBy(lo.Flatten(perSource), func(entry models.FeedEntry) string {
		return entry.Link
	})

	sortNewestFirst(entries)

	return Limit(models.AggregatedFeed{Entries: entries}, opts)
}

// Limit applies opts to an already ordered feed
func Limit(feed models.AggregatedFeed, opts Options) models.AggregatedFeed {
	entries := feed.Entries
	if opts.PerSourceLimit > 0 {
		entries = limitPerSource(entries, opts.PerSourceLimit)
	}

	if opts.MaxEntries > 0 && len(entries) > opts.MaxEntries {
		entries = entries[:opts.MaxEntries]
	}

	return models.AggregatedFeed{Entries: entries}
}

// FromResults collects the entries of every successful result in order
func FromResults(results []models.FetchResult) [][]models.FeedEntry {
	return lo.FilterMap(results, func(result models.FetchResult, _ int) ([]models.FeedEntry, bool) {
		return result.Entries, !result.Failed()
	})
}

func sortNewestFirst(entries []models.FeedEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PublishedAt.After(entries[j].PublishedAt)
	})
}

// limitPerSource keeps the first n entries of every source. entries must
// already be sorted newest first.
func limitPerSource(entries []models.FeedEntry, n int) []models.FeedEntry {
	seen := make(map[string]int)
	return lo.Filter(entries, func(entry models.FeedEntry, _ int) bool {
		seen[entry.SourceURL]++
		return seen[entry.SourceURL] <= n
	})
}

// Partition splits feed into the entries matching pred and the rest,
// keeping the order of both
func Partition(feed models.AggregatedFeed, pred func(models.FeedEntry) bool) (models.AggregatedFeed, models.AggregatedFeed) {
	matched, rest := lo.FilterReject(feed.Entries, func(entry models.FeedEntry, _ int) bool {
		return pred(entry)
	})
	return models.AggregatedFeed{Entries: matched}, models.AggregatedFeed{Entries: rest}
}

var notWeekNote = []string{"week's", "week’s", "weekend", "biweek", "midweek", "semiweek", "yesterweek"}

// IsWeekNote reports whether entry looks like a periodic week note post
func IsWeekNote(entry models.FeedEntry) bool {
	title := strings.ToLower(entry.Title)
	if strings.Contains(title, "weeknote") {
		return true
	}
	if strings.Contains(title, "week") && !lo.SomeBy(notWeekNote, func(w string) bool {
		return strings.Contains(title, w)
	}) {
		return true
	}
	return lo.SomeBy(entry.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), "weeknote")
	})
}
