package server

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type ServerConfig struct {
	// Directory holding the generated site
	Root string

	// Reports the time of the last finished build, if any
	LastBuild func() time.Time
}

// Returns a fiber.App that previews the generated site
func Server(config *ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  c.Response().StatusCode(),
			"latency": time.Since(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		status := fiber.Map{"status": "ok"}
		if config.LastBuild != nil {
			if last := config.LastBuild(); !last.IsZero() {
				status["lastBuild"] = last.UTC().Format(time.RFC3339)
			}
		}
		return c.JSON(status)
	})

	// Preview pages are rebuilt underneath us, so never let browsers cache them
	app.Use(func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return c.Next()
	})

	app.Use("/", filesystem.New(filesystem.Config{
		Browse: false,
		Index:  "index.html",
		Root:   http.Dir(config.Root),
	}))

	return app
}
