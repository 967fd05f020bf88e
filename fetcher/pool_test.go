package fetcher_test

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IndieWebClubBlr/website/fetcher"
	"github.com/IndieWebClubBlr/website/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowFetcher struct {
	running atomic.Int32
	peak    atomic.Int32
}

func (s *slowFetcher) Fetch(ctx context.Context, source models.FeedSource) models.FetchResult {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	return models.FetchResult{Source: source, Fetched: source.Position}
}

func TestPoolKeepsSourceOrder(t *testing.T) {
	tests := []struct {
		name    string
		sources int
		workers int
	}{
		{name: "no sources", sources: 0, workers: 4},
		{name: "fewer sources than workers", sources: 2, workers: 4},
		{name: "many sources", sources: 50, workers: 4},
		{name: "single worker", sources: 10, workers: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := make([]models.FeedSource, tt.sources)
			for i := range sources {
				sources[i] = models.FeedSource{Position: i, FeedURL: "https://example.org/" + string(rune('a'+i%26))}
			}

			f := &slowFetcher{}
			results := fetcher.NewPool(f, tt.workers).FetchAll(context.Background(), sources)

			require.Len(t, results, tt.sources)
			for i, result := range results {
				assert.Equal(t, i, result.Source.Position)
				assert.Equal(t, i, result.Fetched)
			}
			assert.LessOrEqual(t, f.peak.Load(), int32(tt.workers))
		})
	}
}
