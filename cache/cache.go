// Package cache defines the store the fetcher uses to avoid refetching feeds.
package cache

import (
	"context"
	"sync"

	"github.com/IndieWebClubBlr/website/models"
)

// Cache stores the last fetched body of each feed, keyed by feed URL.
// Implementations treat unreadable records as absent.
type Cache interface {
	Get(ctx context.Context, feedURL string) (*models.CacheRecord, bool)
	Put(ctx context.Context, record models.CacheRecord) error
}

// Disabled never returns a record and drops every write
type Disabled struct{}

func (Disabled) Get(context.Context, string) (*models.CacheRecord, bool) {
	return nil, false
}

func (Disabled) Put(context.Context, models.CacheRecord) error {
	return nil
}

// Memory keeps records for the lifetime of the process
type Memory struct {
	mu      sync.RWMutex
	records map[string]models.CacheRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]models.CacheRecord)}
}

func (m *Memory) Get(_ context.Context, feedURL string) (*models.CacheRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[feedURL]
	if !ok || !record.Valid() {
		return nil, false
	}
	record.Content = append([]byte(nil), record.Content...)
	return &record, true
}

func (m *Memory) Put(_ context.Context, record models.CacheRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.Content = append([]byte(nil), record.Content...)
	m.records[record.FeedURL] = record
	return nil
}

// Len returns the number of stored records
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
