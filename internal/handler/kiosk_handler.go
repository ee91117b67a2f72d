package handler

import (
	"pdks-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

// KioskHandler serves the endpoints a kiosk tablet calls.
type KioskHandler struct {
	challenge usecase.ChallengeUsecase
	punch     usecase.PunchUsecase
	session   usecase.SessionUsecase
}

func NewKioskHandler(challenge usecase.ChallengeUsecase, punch usecase.PunchUsecase, session usecase.SessionUsecase) *KioskHandler {
	return &KioskHandler{challenge: challenge, punch: punch, session: session}
}

// IssueChallenge returns a fresh code for the kiosk to display.
func (h *KioskHandler) IssueChallenge(c *fiber.Ctx) error {
	var req usecase.IssueChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	resp, err := h.challenge.Issue(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, resp)
}

func (h *KioskHandler) Punch(c *fiber.Ctx) error {
	var req usecase.RecordPunchRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	result, err := h.punch.Record(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return created(c, result)
}

// EmployeeStatus tells the kiosk what scanning this employee would do.
func (h *KioskHandler) EmployeeStatus(c *fiber.Ctx) error {
	status, err := h.session.KioskStatus(c.UserContext(), c.Params("code"), c.Query("device_id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, status)
}
