package routes

import (
	"pdks-backend/internal/handler"
	"pdks-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupSessionRoutes(app *fiber.App, uc *usecase.Usecases) {
	hdl := handler.NewSessionHandler(uc.Session)

	app.Get("/api/sessions/:employee_id/:date", hdl.Get)
}
