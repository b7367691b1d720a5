package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"enrollapi/internal/http/middleware"
	"enrollapi/internal/schema"
	"enrollapi/internal/service"
	"enrollapi/internal/workflow"
)

// errorPayload defines the standardized error response body. Errors carries
// validation messages keyed by the failing concern and is only present on
// validation failures.
type errorPayload struct {
	RequestID string              `json:"request_id"`
	Error     errorEnvelope       `json:"error"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeValidationError writes a 422 with the per-concern messages attached.
func writeValidationError(c *fiber.Ctx, errs map[string][]string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    "VALIDATION_FAILED",
			Message: "validation failed",
		},
		Errors: errs,
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(res)
}

// translateError maps the core's recoverable error taxonomy onto structured
// HTTP responses. Nothing here ever escapes as a process-fatal condition.
func translateError(c *fiber.Ctx, err error) error {
	var (
		verr *workflow.ValidationError
		cerr *schema.CoercionError
		uerr *service.UnknownAttributeError
	)
	switch {
	case errors.As(err, &verr):
		return writeValidationError(c, verr.Errors)
	case errors.As(err, &cerr):
		return writeValidationError(c, map[string][]string{cerr.Field: {cerr.Error()}})
	case errors.As(err, &uerr):
		return writeError(c, fiber.StatusUnprocessableEntity, "UNKNOWN_ATTRIBUTE", uerr.Error())
	case errors.Is(err, workflow.ErrIllegalTransition):
		return writeError(c, fiber.StatusUnprocessableEntity, "ILLEGAL_TRANSITION", "event not allowed from current state")
	case errors.Is(err, service.ErrEventNotPermitted):
		return writeError(c, fiber.StatusBadRequest, "EVENT_NOT_PERMITTED", "event not permitted")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "forbidden")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrIDRequired), errors.Is(err, service.ErrContentRequired), errors.Is(err, service.ErrReaderNil):
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
