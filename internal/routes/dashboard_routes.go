package routes

import (
	"pdks-backend/internal/handler"
	"pdks-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupDashboardRoutes(app *fiber.App, uc *usecase.Usecases) {
	hdl := handler.NewDashboardHandler(uc.Report)

	app.Get("/api/admin/dashboard", hdl.GetStats)
}
