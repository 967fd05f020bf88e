package db

import (
	"context"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Tidy removes cache records fetched before olderThan, and records for
// feeds not in keep. An empty keep list only prunes by age and a zero
// olderThan only prunes by membership.
func (s *Store) Tidy(ctx context.Context, keep []string, olderThan time.Time) (int64, error) {
	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom("feed_cache")

	var conds []string
	if !olderThan.IsZero() {
		conds = append(conds, del.LessThan("fetched_at", olderThan.UnixNano()))
	}
	if len(keep) > 0 {
		conds = append(conds, del.NotIn("feed_url", lo.ToAnySlice(keep)...))
	}
	if len(conds) == 0 {
		return 0, nil
	}
	del.Where(del.Or(conds...))

	query, args := del.Build()
	log.WithFields(log.Fields{
		"sql":  query,
		"args": len(args),
	}).Debug("Tidying state database")

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("tidy error: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"removed":    removed,
		"older_than": olderThan.Format(time.RFC3339),
	}).Info("Tidied fetch cache")

	return removed, nil
}
