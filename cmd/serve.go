/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IndieWebClubBlr/website/pipeline"
	"github.com/IndieWebClubBlr/website/server"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Preview the blogroll site",
		ArgsUsage: "[outline.opml]",
		Description: `Serves the output directory over HTTP for previewing.

		When an outline is given the site is built once before serving.
		With --watch the site is rebuilt whenever the outline, the config
		file or the templates change. Prometheus metrics are served on
		/metrics.`,
		Flags: []cli.Flag{
			outputFlag(),
			stateFlag(),
			cacheFlag(),
			&cli.StringFlag{
				Name:    "hostname",
				Value:   "localhost",
				Usage:   "Hostname to listen on",
				EnvVars: []string{"BLOGROLL_HOSTNAME"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   3000,
				Usage:   "Port to listen on",
				EnvVars: []string{"BLOGROLL_PORT"},
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Rebuild when the outline, config or templates change",
				EnvVars: []string{"BLOGROLL_WATCH"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			outlinePath := ctx.Args().First()
			if ctx.Bool("watch") && outlinePath == "" {
				return fmt.Errorf("--watch needs an outline file")
			}

			var lastBuild atomic.Int64
			var building sync.Mutex
			rebuild := func() {
				if outlinePath == "" {
					return
				}
				building.Lock()
				defer building.Unlock()

				// Pick up edits to the config file as well
				current, err := loadConfig(ctx)
				if err != nil {
					log.WithError(err).Error("Invalid configuration, keeping the current site")
					return
				}
				current.Output.Dir = cfg.Output.Dir

				_, err = pipeline.NewBuilder(current).Build(ctx.Context, pipeline.Options{
					OutlinePath: outlinePath,
					UseCache:    ctx.Bool("cache"),
				})
				if err != nil {
					log.WithError(err).Error("Build failed, keeping the current site")
					return
				}
				lastBuild.Store(time.Now().UnixNano())
			}

			rebuild()

			app := server.Server(&server.ServerConfig{
				Root: cfg.Output.Dir,
				LastBuild: func() time.Time {
					if nanos := lastBuild.Load(); nanos > 0 {
						return time.Unix(0, nanos)
					}
					return time.Time{}
				},
			})

			// Graceful shutdown
			runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if ctx.Bool("watch") {
				paths := []string{outlinePath, cfg.Output.TemplatesDir, cfg.Output.AssetsDir}
				if ctx.IsSet("config") {
					paths = append(paths, ctx.String("config"))
				}
				if err := watchFiles(runCtx, paths, watchDebounce, rebuild); err != nil {
					return err
				}
			}

			go func() {
				<-runCtx.Done()
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.WithError(err).Warn("Server shutdown failed")
				}
			}()

			addr := fmt.Sprintf("%s:%d", ctx.String("hostname"), ctx.Int("port"))
			log.WithFields(log.Fields{
				"address": "http://" + addr,
				"root":    cfg.Output.Dir,
			}).Info("Serving site")
			return app.Listen(addr)
		},
	}
}
