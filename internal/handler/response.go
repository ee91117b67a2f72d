package handler

import (
	"errors"

	"pdks-backend/internal/apperror"
	"pdks-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.InvalidArgument:
		return fiber.StatusBadRequest
	case apperror.PermissionDenied:
		return fiber.StatusForbidden
	case apperror.NotFound:
		return fiber.StatusNotFound
	case apperror.Conflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func fail(c *fiber.Ctx, err error) error {
	return failWith(c, err, nil)
}

// failWith renders the error envelope, attaching data when a partial
// result is worth returning.
func failWith(c *fiber.Ctx, err error, data interface{}) error {
	e := apperror.As(err)
	if e.Err != nil {
		c.Locals(middleware.ErrorKey, e.Err)
	}
	body := fiber.Map{
		"success":   false,
		"error":     e.Message,
		"code":      e.Kind,
		"retryable": e.Retryable(),
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(StatusOf(e.Kind)).JSON(body)
}

// ErrorHandler renders errors that escape handlers (unknown routes, body
// limits, panics caught by recover) with the same envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		return fail(c, err)
	}
	kind := apperror.Internal
	switch {
	case fe.Code == fiber.StatusNotFound:
		kind = apperror.NotFound
	case fe.Code >= 400 && fe.Code < 500:
		kind = apperror.InvalidArgument
	}
	e := apperror.New(kind, fe.Message)
	return c.Status(fe.Code).JSON(fiber.Map{
		"success":   false,
		"error":     e.Message,
		"code":      e.Kind,
		"retryable": e.Retryable(),
	})
}

func badBody(c *fiber.Ctx, err error) error {
	return fail(c, apperror.Wrap(apperror.InvalidArgument, "invalid request body", err))
}
