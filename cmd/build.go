/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/IndieWebClubBlr/website/pipeline"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func buildCmd() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Build the blogroll site",
		ArgsUsage: "<outline.opml>",
		Description: `Fetches every feed listed in the outline and writes the blogroll
		page, the Atom feed and the webring redirects.

		Feeds that cannot be fetched or parsed are reported and skipped.
		The build only fails when the outline, the configuration or the
		output cannot be handled.`,
		Flags: []cli.Flag{
			outputFlag(),
			stateFlag(),
			cacheFlag(),
			&cli.IntFlag{
				Name:    "max-entries",
				Usage:   "Maximum number of entries on the home page, the Atom feed is capped by --max-atom-entries",
				EnvVars: []string{"BLOGROLL_MAX_ENTRIES"},
			},
			&cli.IntFlag{
				Name:    "max-atom-entries",
				Usage:   "Maximum number of entries in the Atom feed",
				EnvVars: []string{"BLOGROLL_MAX_ATOM_ENTRIES"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "Number of feeds fetched concurrently",
				EnvVars: []string{"BLOGROLL_WORKERS"},
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "Write build metrics in Prometheus text format to this file",
				EnvVars: []string{"BLOGROLL_METRICS_FILE"},
			},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return fmt.Errorf("expected exactly one outline file, got %d arguments", ctx.NArg())
			}

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			report, err := pipeline.NewBuilder(cfg).Build(ctx.Context, pipeline.Options{
				OutlinePath: ctx.Args().First(),
				UseCache:    ctx.Bool("cache"),
				MetricsFile: ctx.String("metrics-file"),
			})
			if err != nil {
				return fmt.Errorf("build failed: %w", err)
			}

			log.WithFields(log.Fields{
				"output":  cfg.Output.Dir,
				"entries": report.Feed.Len(),
			}).Info("Build complete")
			return nil
		},
	}
}
