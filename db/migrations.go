package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var fs embed.FS

func newMigrate(dbPath string) (*migrate.Migrate, error) {
	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, "sqlite://"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}
	return m, nil
}

// Migrate brings the state database at dbPath up to the latest schema,
// creating the file if it does not exist
func Migrate(dbPath string) error {
	if err := ensureDir(dbPath); err != nil {
		return err
	}

	m, err := newMigrate(dbPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.WithFields(log.Fields{
		"database": dbPath,
		"version":  version,
		"dirty":    dirty,
	}).Debug("State database migrated")

	return nil
}

// Rollback reverts the most recent migration
func Rollback(dbPath string) error {
	m, err := newMigrate(dbPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("error rolling back migration: %w", err)
	}
	return nil
}
