/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/IndieWebClubBlr/website/config"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "blogroll",
		Usage: "Build the IndieWebClub Bangalore blogroll and webring",
		Description: `Builds a static blogroll page and Atom feed from the feeds
		listed in an OPML outline, and picks the daily webring neighbours.

		Each build fetches every member feed concurrently, keeps the most
		recent posts, and writes index.html, the Atom feed and the webring
		redirect pages to the output directory.

		Flags can generally be set via environment variables, e.g.:

		--output => BLOGROLL_OUTPUT=_site
		--state => BLOGROLL_STATE=.cache/blogroll.db
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "blogroll.toml",
				Usage:   "TOML configuration file, optional unless given explicitly",
				EnvVars: []string{"BLOGROLL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"BLOGROLL_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Shorthand for --log-level debug",
				EnvVars: []string{"BLOGROLL_VERBOSE"},
			},
		},
		Before: func(ctx *cli.Context) error {
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			level, err := log.ParseLevel(ctx.String("log-level"))
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			if ctx.Bool("verbose") && level < log.DebugLevel {
				level = log.DebugLevel
			}
			log.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			buildCmd(),
			webringCmd(),
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			tidyCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the configuration file and applies any of the shared
// command flags that were set on top of it
func loadConfig(ctx *cli.Context) (*config.TomlConfig, error) {
	cfg, err := config.LoadConfig(ctx.String("config"), !ctx.IsSet("config"))
	if err != nil {
		return nil, err
	}

	if ctx.IsSet("output") {
		cfg.Output.Dir = ctx.String("output")
	}
	if ctx.IsSet("state") {
		cfg.Output.StatePath = ctx.String("state")
	}
	if ctx.IsSet("workers") {
		cfg.Fetch.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("max-entries") {
		cfg.Page.MaxEntries = ctx.Int("max-entries")
	}
	if ctx.IsSet("max-atom-entries") {
		cfg.Page.MaxAtomEntries = ctx.Int("max-atom-entries")
	}

	return cfg, cfg.Validate()
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Directory the site is written to",
		EnvVars: []string{"BLOGROLL_OUTPUT"},
	}
}

func stateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "state",
		Usage:   "SQLite database holding the fetch cache and webring members",
		EnvVars: []string{"BLOGROLL_STATE"},
	}
}

func cacheFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "cache",
		Usage:   "Reuse feeds fetched within the freshness window",
		EnvVars: []string{"BLOGROLL_CACHE"},
	}
}
