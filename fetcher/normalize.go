package fetcher

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/IndieWebClubBlr/website/models"
	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
)

const untitled = "(untitled)"

// normalize converts parsed items into entries attributed to source. Items
// without a usable link are dropped. fetchedAt stands in for missing dates.
func (f *Fetcher) normalize(feed *gofeed.Feed, source models.FeedSource, fetchedAt time.Time) []models.FeedEntry {
	base := baseURL(feed, source)

	entries := make([]models.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		link := entryLink(item, base)
		if link == "" {
			continue
		}

		title := strings.Join(strings.Fields(item.Title), " ")
		if title == "" {
			title = untitled
		}

		description := item.Description
		if strings.TrimSpace(description) == "" {
			description = item.Content
		}

		entries = append(entries, models.FeedEntry{
			SourceTitle: source.Title,
			SourceURL:   source.FeedURL,
			SiteURL:     source.SiteURL,
			Title:       title,
			Link:        link,
			PublishedAt: entryDate(item, fetchedAt),
			Summary:     summarize(description, f.opts.SummaryLength),
			Tags:        entryTags(item.Categories, f.opts.MaxTags),
		})
	}

	return entries
}

// filter drops entries outside the age window, sorts the rest newest first
// and keeps the configured number of them
func (f *Fetcher) filter(entries []models.FeedEntry, now time.Time) []models.FeedEntry {
	kept := lo.Filter(entries, func(entry models.FeedEntry, _ int) bool {
		if f.opts.MaxAge > 0 && entry.PublishedAt.Before(now.Add(-f.opts.MaxAge)) {
			return false
		}
		return !entry.PublishedAt.After(now.Add(f.opts.MaxFutureSkew))
	})

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].PublishedAt.After(kept[j].PublishedAt)
	})

	if f.opts.MaxFeedEntries > 0 && len(kept) > f.opts.MaxFeedEntries {
		kept = kept[:f.opts.MaxFeedEntries]
	}
	return kept
}

func baseURL(feed *gofeed.Feed, source models.FeedSource) *url.URL {
	if feed.Link != "" {
		if u, err := url.Parse(feed.Link); err == nil && isHTTP(u) {
			return u
		}
	}
	u, _ := url.Parse(source.FeedURL)
	return u
}

func entryLink(item *gofeed.Item, base *url.URL) string {
	candidates := []string{item.Link}
	candidates = append(candidates, item.Links...)

	for _, candidate := range candidates {
		if resolved := resolve(candidate, base); resolved != "" {
			return resolved
		}
	}

	// Only trust a GUID when it is already an absolute URL
	if u, err := url.Parse(strings.TrimSpace(item.GUID)); err == nil && isHTTP(u) {
		return u.String()
	}
	return ""
}

func resolve(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if !isHTTP(ref) {
		return ""
	}
	return ref.String()
}

func isHTTP(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func entryDate(item *gofeed.Item, fetchedAt time.Time) time.Time {
	switch {
	case item.PublishedParsed != nil && !item.PublishedParsed.IsZero():
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil && !item.UpdatedParsed.IsZero():
		return item.UpdatedParsed.UTC()
	default:
		return fetchedAt.UTC()
	}
}

func entryTags(categories []string, limit int) []string {
	tags := lo.Filter(lo.Map(categories, func(c string, _ int) string {
		return strings.TrimSpace(c)
	}), func(c string, _ int) bool {
		return c != ""
	})
	tags = lo.UniqBy(tags, strings.ToLower)

	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}
