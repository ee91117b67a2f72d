package routes

import (
	"pdks-backend/internal/handler"
	"pdks-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupKioskRoutes(app *fiber.App, uc *usecase.Usecases) {
	hdl := handler.NewKioskHandler(uc.Challenge, uc.Punch, uc.Session)

	api := app.Group("/api/kiosk")
	api.Post("/challenge", hdl.IssueChallenge)
	api.Post("/punch", hdl.Punch)
	api.Get("/employees/:code", hdl.EmployeeStatus)
}
