package handler

import (
	"pdks-backend/internal/apperror"
	"pdks-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	session usecase.SessionUsecase
}

func NewSessionHandler(session usecase.SessionUsecase) *SessionHandler {
	return &SessionHandler{session: session}
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	employeeID, err := c.ParamsInt("employee_id")
	if err != nil || employeeID <= 0 {
		return fail(c, apperror.Invalid("employee_id must be a positive number"))
	}
	day, err := h.session.Get(c.UserContext(), uint(employeeID), c.Params("date"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, day)
}
