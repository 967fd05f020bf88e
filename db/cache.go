package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IndieWebClubBlr/website/models"
	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Get returns the cached body for feedURL. Rows that fail to load are
// reported as absent.
func (s *Store) Get(ctx context.Context, feedURL string) (*models.CacheRecord, bool) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("content", "fetched_at", "etag", "last_modified").
		From("feed_cache").
		Where(sb.Equal("feed_url", feedURL))
	query, args := sb.Build()

	record := models.CacheRecord{FeedURL: feedURL}
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&record.Content, &fetchedAt, &record.ETag, &record.LastModified)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.WithFields(log.Fields{
				"feedUrl": feedURL,
				"error":   err,
			}).Warn("Ignoring unreadable cache record")
		}
		return nil, false
	}

	if fetchedAt > 0 {
		record.FetchedAt = time.Unix(0, fetchedAt).UTC()
	}
	if !record.Valid() {
		log.WithFields(log.Fields{
			"feedUrl": feedURL,
		}).Warn("Ignoring incomplete cache record")
		return nil, false
	}

	return &record, true
}

// Put stores record, replacing any previous record for the same feed
func (s *Store) Put(ctx context.Context, record models.CacheRecord) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.ReplaceInto("feed_cache").
		Cols("feed_url", "content", "fetched_at", "etag", "last_modified").
		Values(record.FeedURL, record.Content, record.FetchedAt.UnixNano(), record.ETag, record.LastModified)
	query, args := ib.Build()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("cache write error: %w", err)
	}
	return nil
}
