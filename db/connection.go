package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

func connection(database string) (*sql.DB, error) {
	if err := ensureDir(database); err != nil {
		return nil, err
	}

	// WAL keeps readers unblocked while a build writes the cache
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", database))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)

	if _, err := db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA cache_size = -8000; -- 8MB cache
		PRAGMA temp_store = MEMORY;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	return db, nil
}

func ensureDir(database string) error {
	if err := os.MkdirAll(filepath.Dir(database), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}
