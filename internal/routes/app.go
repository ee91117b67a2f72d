package routes

import (
	"strings"

	"pdks-backend/internal/handler"
	"pdks-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// NewApp builds the fiber app with the middleware every route shares.
func NewApp(logger *zap.Logger, allowOrigins []string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "pdks-backend",
		ErrorHandler: handler.ErrorHandler,
		BodyLimit:    8 << 20, // base64 selfies
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(middleware.Metrics())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(allowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.RequestIDHeader,
	}))
	return app
}
