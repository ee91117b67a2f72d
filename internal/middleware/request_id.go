package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"

	// requestIDMaxLen bounds ids taken from clients before they reach logs.
	requestIDMaxLen = 64
)

// RequestID reuses the caller's X-Request-ID or generates one, stores it in
// Locals and echoes it on the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(RequestIDHeader)
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.NewString()
		}
		c.Locals(RequestIDKey, rid)
		c.Set(RequestIDHeader, rid)
		return c.Next()
	}
}

func RequestIDOf(c *fiber.Ctx) string {
	rid, _ := c.Locals(RequestIDKey).(string)
	return rid
}
