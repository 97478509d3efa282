package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"questify/metrics"
)

// SetupSystemRoutes registers the unauthenticated probes. Must run before
// the gateway middleware is installed.
func SetupSystemRoutes(app *fiber.App, rec *metrics.Recorder) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if rec != nil {
		app.Get("/metrics", adaptor.HTTPHandler(rec.Handler()))
	}
}
