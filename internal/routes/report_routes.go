package routes

import (
	"pdks-backend/internal/handler"
	"pdks-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupReportRoutes(app *fiber.App, uc *usecase.Usecases) {
	hdl := handler.NewReportHandler(uc.Report)

	api := app.Group("/api/admin/reports")
	api.Get("/sessions", hdl.Sessions)
	api.Get("/punches", hdl.Punches)
}
