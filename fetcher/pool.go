package fetcher

import (
	"context"
	"sync"

	"github.com/IndieWebClubBlr/website/models"
	log "github.com/sirupsen/logrus"
)

// SourceFetcher fetches a single source
type SourceFetcher interface {
	Fetch(ctx context.Context, source models.FeedSource) models.FetchResult
}

// Pool runs fetches on a fixed number of workers
type Pool struct {
	fetcher    SourceFetcher
	maxWorkers int
}

func NewPool(fetcher SourceFetcher, maxWorkers int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pool{fetcher: fetcher, maxWorkers: maxWorkers}
}

// FetchAll fetches every source and returns the results in source order,
// whatever order the fetches complete in
func (p *Pool) FetchAll(ctx context.Context, sources []models.FeedSource) []models.FetchResult {
	results := make([]models.FetchResult, len(sources))
	if len(sources) == 0 {
		return results
	}

	workers := min(p.maxWorkers, len(sources))
	queue := make(chan int)

	log.WithFields(log.Fields{
		"feeds":   len(sources),
		"workers": workers,
	}).Info("Fetching feeds")

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.startWorker(ctx, &wg, queue, sources, results)
	}

	for i := range sources {
		queue <- i
	}
	close(queue)
	wg.Wait()

	return results
}

func (p *Pool) startWorker(ctx context.Context, wg *sync.WaitGroup, queue <-chan int, sources []models.FeedSource, results []models.FetchResult) {
	defer wg.Done()

	// Each worker owns the indexes it receives, so results needs no lock
	for i := range queue {
		results[i] = p.fetcher.Fetch(ctx, sources[i])
	}
}
