package handler

import (
	"pdks-backend/internal/apperror"
	"pdks-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves master data maintenance, manual corrections and
// on-demand aggregation.
type AdminHandler struct {
	admin      usecase.AdminUsecase
	punch      usecase.PunchUsecase
	aggregator usecase.AggregatorUsecase
}

func NewAdminHandler(admin usecase.AdminUsecase, punch usecase.PunchUsecase, aggregator usecase.AggregatorUsecase) *AdminHandler {
	return &AdminHandler{admin: admin, punch: punch, aggregator: aggregator}
}

func idParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperror.Invalid("id must be a positive number")
	}
	return uint(id), nil
}

// ── Employees ──

func (h *AdminHandler) CreateEmployee(c *fiber.Ctx) error {
	var req usecase.EmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	employee, err := h.admin.CreateEmployee(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return created(c, employee)
}

func (h *AdminHandler) UpdateEmployee(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return fail(c, err)
	}
	var req usecase.EmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	employee, err := h.admin.UpdateEmployee(c.UserContext(), id, req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, employee)
}

func (h *AdminHandler) SetEmployeeActive(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return fail(c, err)
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if req.Active == nil {
		return fail(c, apperror.Invalid("active is required"))
	}
	employee, err := h.admin.SetEmployeeActive(c.UserContext(), id, *req.Active)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, employee)
}

func (h *AdminHandler) GetEmployeeByCode(c *fiber.Ctx) error {
	employee, err := h.admin.GetEmployeeByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, employee)
}

// ListEmployees accepts ?active=true to hide deactivated staff.
func (h *AdminHandler) ListEmployees(c *fiber.Ctx) error {
	employees, err := h.admin.ListEmployees(c.UserContext(), c.QueryBool("active"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, employees)
}

// ── Devices ──

func (h *AdminHandler) RegisterDevice(c *fiber.Ctx) error {
	var req usecase.DeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	reg, err := h.admin.RegisterDevice(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return created(c, reg)
}

func (h *AdminHandler) ListDevices(c *fiber.Ctx) error {
	devices, err := h.admin.ListDevices(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, devices)
}

func (h *AdminHandler) SetDeviceStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if err := h.admin.SetDeviceStatus(c.UserContext(), c.Params("id"), req.Status); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"id": c.Params("id"), "status": req.Status})
}

// ── Policies ──

func (h *AdminHandler) GetPolicy(c *fiber.Ctx) error {
	policy, err := h.admin.GetPolicy(c.UserContext(), c.Params("location_id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, policy)
}

func (h *AdminHandler) ListPolicies(c *fiber.Ctx) error {
	policies, err := h.admin.ListPolicies(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, policies)
}

func (h *AdminHandler) UpsertPolicy(c *fiber.Ctx) error {
	var req usecase.PolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	policy, err := h.admin.UpsertPolicy(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, policy)
}

// ── Shifts ──

func (h *AdminHandler) UpsertShift(c *fiber.Ctx) error {
	var req usecase.ShiftRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	shift, err := h.admin.UpsertShift(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, shift)
}

func (h *AdminHandler) ListShifts(c *fiber.Ctx) error {
	shifts, err := h.admin.ListShifts(c.UserContext(), c.Query("date"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, shifts)
}

func (h *AdminHandler) DeleteShift(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.admin.DeleteShift(c.UserContext(), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Holidays ──

func (h *AdminHandler) CreateHoliday(c *fiber.Ctx) error {
	var req usecase.HolidayRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	holiday, err := h.admin.CreateHoliday(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return created(c, holiday)
}

func (h *AdminHandler) ListHolidays(c *fiber.Ctx) error {
	holidays, err := h.admin.ListHolidays(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, holidays)
}

func (h *AdminHandler) DeleteHoliday(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.admin.DeleteHoliday(c.UserContext(), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Locations ──

func (h *AdminHandler) UpsertLocation(c *fiber.Ctx) error {
	var req usecase.LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	location, err := h.admin.UpsertLocation(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, location)
}

func (h *AdminHandler) ListLocations(c *fiber.Ctx) error {
	locations, err := h.admin.ListLocations(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, locations)
}

// ── Corrections ──

func (h *AdminHandler) ManualPunch(c *fiber.Ctx) error {
	var req usecase.ManualPunchRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	result, err := h.punch.RecordManual(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return created(c, result)
}

// Aggregate rebuilds a closed day; an empty body means yesterday.
func (h *AdminHandler) Aggregate(c *fiber.Ctx) error {
	var req struct {
		Date string `json:"date"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, err)
		}
	}
	result, err := h.aggregator.Run(c.UserContext(), req.Date)
	if err != nil {
		if result != nil {
			return failWith(c, err, result)
		}
		return fail(c, err)
	}
	return ok(c, result)
}
