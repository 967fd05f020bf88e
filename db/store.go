package db

import (
	"database/sql"
	"fmt"
)

// Store is the persistent build state: the fetch cache and the webring
// membership recorded by the last build
type Store struct {
	db   *sql.DB
	path string
}

// Open migrates and opens the state database at path. A missing file is
// created empty.
func Open(path string) (*Store, error) {
	if err := Migrate(path); err != nil {
		return nil, err
	}

	db, err := connection(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}
