/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/IndieWebClubBlr/website/db"
	"github.com/IndieWebClubBlr/website/models"
	"github.com/IndieWebClubBlr/website/outline"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:      "tidy",
		Usage:     "Tidy up the state database",
		ArgsUsage: "[outline.opml]",
		Description: `Tidy up the fetch cache by removing feeds that were last fetched
		more than --days ago.

		When an outline is given, cached feeds that are no longer listed in
		it are removed as well. This keeps the database small after members
		leave the blogroll.`,
		Flags: []cli.Flag{
			stateFlag(),
			&cli.IntFlag{
				Name:    "days",
				Value:   30,
				Usage:   "Remove cached feeds older than this many days, 0 disables the age check",
				EnvVars: []string{"BLOGROLL_TIDY_DAYS"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if cfg.Output.StatePath == "" {
				return fmt.Errorf("no state database configured")
			}

			var keep []string
			if ctx.NArg() > 0 {
				sources, err := outline.Load(ctx.Args().First())
				if err != nil {
					return err
				}
				keep = lo.Map(sources, func(source models.FeedSource, _ int) string {
					return source.FeedURL
				})
			}

			var olderThan time.Time
			if days := ctx.Int("days"); days > 0 {
				olderThan = time.Now().AddDate(0, 0, -days)
			}

			store, err := db.Open(cfg.Output.StatePath)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Tidy(ctx.Context, keep, olderThan)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"state":   cfg.Output.StatePath,
				"removed": removed,
			}).Info("Tidied fetch cache")
			return nil
		},
	}
}
