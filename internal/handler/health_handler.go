package handler

import (
	"context"
	"time"

	"pdks-backend/internal/apperror"
	"pdks-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler takes the store's ping, e.g. sql.DB.PingContext.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.ping(ctx); err != nil {
		c.Locals(middleware.ErrorKey, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success":   false,
			"error":     "database unavailable",
			"code":      apperror.Internal,
			"retryable": true,
		})
	}
	return ok(c, fiber.Map{"status": "ok"})
}
