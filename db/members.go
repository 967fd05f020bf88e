package db

import (
	"context"
	"fmt"
	"time"

	"github.com/IndieWebClubBlr/website/models"
	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// SaveMembers replaces the recorded webring membership with members, in order
func (s *Store) SaveMembers(ctx context.Context, members []models.FeedSource, recordedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin error: %w", err)
	}
	defer tx.Rollback()

	del := sqlbuilder.SQLite.NewDeleteBuilder()
	query, args := del.DeleteFrom("webring_members").Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete error: %w", err)
	}

	if len(members) > 0 {
		ib := sqlbuilder.SQLite.NewInsertBuilder()
		ib.InsertInto("webring_members").Cols("position", "title", "feed_url", "site_url", "recorded_at")
		for i, member := range members {
			ib.Values(i, member.Title, member.FeedURL, member.SiteURL, recordedAt.Unix())
		}
		query, args = ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert error: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit error: %w", err)
	}

	log.WithFields(log.Fields{
		"members": len(members),
	}).Debug("Recorded webring members")

	return nil
}

// Members returns the membership recorded by the last build, in order
func (s *Store) Members(ctx context.Context) ([]models.FeedSource, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("position", "title", "feed_url", "site_url").
		From("webring_members").
		OrderBy("position").Asc()
	query, args := sb.Build()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var members []models.FeedSource
	for rows.Next() {
		var member models.FeedSource
		if err := rows.Scan(&member.Position, &member.Title, &member.FeedURL, &member.SiteURL); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		members = append(members, member)
	}

	return members, rows.Err()
}
