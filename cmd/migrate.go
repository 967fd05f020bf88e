/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/IndieWebClubBlr/website/db"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Runs migrations on the state database. Will create the database if it does not exist.`,
		Flags: []cli.Flag{
			stateFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if cfg.Output.StatePath == "" {
				return fmt.Errorf("no state database configured")
			}
			log.WithField("state", cfg.Output.StatePath).Info("Migrating state database")
			return db.Migrate(cfg.Output.StatePath)
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last migration of the state database`,
		Flags: []cli.Flag{
			stateFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if cfg.Output.StatePath == "" {
				return fmt.Errorf("no state database configured")
			}
			log.WithField("state", cfg.Output.StatePath).Info("Rolling back state database")
			return db.Rollback(cfg.Output.StatePath)
		},
	}
}
