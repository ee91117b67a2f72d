package handler

import (
	"pdks-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	report usecase.ReportUsecase
}

func NewReportHandler(report usecase.ReportUsecase) *ReportHandler {
	return &ReportHandler{report: report}
}

// Sessions downloads ?from=YYYY-MM-DD&to=YYYY-MM-DD&format=xlsx|csv.
func (h *ReportHandler) Sessions(c *fiber.Ctx) error {
	report, err := h.report.Sessions(c.UserContext(), c.Query("from"), c.Query("to"), c.Query("format"))
	if err != nil {
		return fail(c, err)
	}
	return download(c, report)
}

// Punches downloads the raw punch ledger of ?from&to as CSV.
func (h *ReportHandler) Punches(c *fiber.Ctx) error {
	report, err := h.report.Punches(c.UserContext(), c.Query("from"), c.Query("to"))
	if err != nil {
		return fail(c, err)
	}
	return download(c, report)
}

func download(c *fiber.Ctx, r *usecase.Report) error {
	c.Attachment(r.Filename)
	c.Set(fiber.HeaderContentType, r.ContentType)
	return c.Send(r.Body)
}
