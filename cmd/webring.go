/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/IndieWebClubBlr/website/pipeline"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func webringCmd() *cli.Command {
	return &cli.Command{
		Name:  "webring",
		Usage: "Rewrite today's webring redirects",
		Description: `Picks today's webring neighbours from the members recorded by the
		last build and rewrites the redirect pages. No feeds are fetched,
		so this can run from cron shortly after midnight.`,
		Flags: []cli.Flag{
			outputFlag(),
			stateFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			pick, err := pipeline.NewBuilder(cfg).Webring(ctx.Context)
			if err != nil {
				return err
			}
			if pick == nil {
				return nil
			}

			log.WithFields(log.Fields{
				"day":      pick.Day,
				"previous": pick.Previous.Title,
				"next":     pick.Next.Title,
			}).Info("Webring updated")
			return nil
		},
	}
}
