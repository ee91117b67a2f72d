package handler

import (
	"pdks-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	report usecase.ReportUsecase
}

func NewDashboardHandler(report usecase.ReportUsecase) *DashboardHandler {
	return &DashboardHandler{report: report}
}

// GetStats summarizes ?date=YYYY-MM-DD, today by default.
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.report.Dashboard(c.UserContext(), c.Query("date"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, stats)
}
