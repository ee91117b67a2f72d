package routes

import (
	"context"

	"pdks-backend/internal/handler"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupSystemRoutes mounts /health, /metrics and, when uploadDir is set,
// the locally stored selfies under uploadPrefix.
func SetupSystemRoutes(app *fiber.App, ping func(ctx context.Context) error, uploadPrefix, uploadDir string) {
	health := handler.NewHealthHandler(ping)

	app.Get("/health", health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if uploadDir != "" {
		app.Static(uploadPrefix, uploadDir)
	}
}
