package routes

import (
	"pdks-backend/internal/handler"
	"pdks-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, uc *usecase.Usecases) {
	hdl := handler.NewAdminHandler(uc.Admin, uc.Punch, uc.Aggregator)

	api := app.Group("/api/admin")

	api.Get("/employees", hdl.ListEmployees)
	api.Post("/employees", hdl.CreateEmployee)
	api.Get("/employees/code/:code", hdl.GetEmployeeByCode)
	api.Put("/employees/:id", hdl.UpdateEmployee)
	api.Patch("/employees/:id/active", hdl.SetEmployeeActive)

	api.Get("/devices", hdl.ListDevices)
	api.Post("/devices", hdl.RegisterDevice)
	api.Patch("/devices/:id/status", hdl.SetDeviceStatus)

	api.Get("/policies", hdl.ListPolicies)
	api.Get("/policies/:location_id", hdl.GetPolicy)
	api.Put("/policies", hdl.UpsertPolicy)

	api.Get("/shifts", hdl.ListShifts)
	api.Put("/shifts", hdl.UpsertShift)
	api.Delete("/shifts/:id", hdl.DeleteShift)

	api.Get("/holidays", hdl.ListHolidays)
	api.Post("/holidays", hdl.CreateHoliday)
	api.Delete("/holidays/:id", hdl.DeleteHoliday)

	api.Get("/locations", hdl.ListLocations)
	api.Put("/locations", hdl.UpsertLocation)

	api.Post("/punches", hdl.ManualPunch)
	api.Post("/aggregate", hdl.Aggregate)
}
