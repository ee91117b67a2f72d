package middleware

import (
	"errors"
	"strconv"
	"time"

	"pdks-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request counts and latency per route pattern, so
// /api/sessions/1/... and /api/sessions/2/... share a series.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		path := c.Route().Path
		if status == fiber.StatusNotFound && path == "/" {
			path = "undefined"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		return err
	}
}
