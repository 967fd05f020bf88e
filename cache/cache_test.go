package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/IndieWebClubBlr/website/cache"
	"github.com/IndieWebClubBlr/website/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	c := cache.Disabled{}

	require.NoError(t, c.Put(ctx, models.CacheRecord{
		FeedURL:   "https://a.example/feed",
		Content:   []byte("<rss/>"),
		FetchedAt: time.Now(),
	}))

	_, ok := c.Get(ctx, "https://a.example/feed")
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	fetchedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record models.CacheRecord
		lookup string
		found  bool
	}{
		{
			name:   "stored record",
			record: models.CacheRecord{FeedURL: "https://a.example/feed", Content: []byte("a"), FetchedAt: fetchedAt, ETag: `"v1"`},
			lookup: "https://a.example/feed",
			found:  true,
		},
		{
			name:   "other key",
			record: models.CacheRecord{FeedURL: "https://a.example/feed", Content: []byte("a"), FetchedAt: fetchedAt},
			lookup: "https://b.example/feed",
			found:  false,
		},
		{
			name:   "empty content is unusable",
			record: models.CacheRecord{FeedURL: "https://a.example/feed", FetchedAt: fetchedAt},
			lookup: "https://a.example/feed",
			found:  false,
		},
		{
			name:   "missing timestamp is unusable",
			record: models.CacheRecord{FeedURL: "https://a.example/feed", Content: []byte("a")},
			lookup: "https://a.example/feed",
			found:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cache.NewMemory()
			require.NoError(t, c.Put(ctx, tt.record))

			got, ok := c.Get(ctx, tt.lookup)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.record, *got)
			}
		})
	}
}

func TestMemoryCopiesContent(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	body := []byte("original")

	require.NoError(t, c.Put(ctx, models.CacheRecord{FeedURL: "u", Content: body, FetchedAt: time.Now()}))
	body[0] = 'X'

	got, ok := c.Get(ctx, "u")
	require.True(t, ok)
	assert.Equal(t, "original", string(got.Content))

	got.Content[0] = 'Y'
	again, _ := c.Get(ctx, "u")
	assert.Equal(t, "original", string(again.Content))
	assert.Equal(t, 1, c.Len())
}
