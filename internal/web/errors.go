// Package web holds the HTTP glue shared by every feature package: error
// rendering, query and path parameter parsing, and request logging.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"gaughar-backend/internal/apperr"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
	Form   []string            `json:"form,omitempty"`
}

// StatusFor maps an application error to its HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, apperr.NotValid):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, apperr.NotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.Forbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperr.Conflict), errors.Is(err, apperr.DependencyRestricted):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders errors returned by handlers. Internal errors are
// logged with their trace and hidden from the client.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		body := ErrorResponse{Error: publicMessage(err, status)}

		if v, ok := apperr.AsValidation(err); ok {
			body.Fields = v.Fields
			body.Form = v.Form
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("error", errors.ErrorStack(err)),
			)
		}
		return c.Status(status).JSON(body)
	}
}

func publicMessage(err error, status int) string {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Message
	case status == fiber.StatusUnprocessableEntity:
		return "Validation failed."
	case errors.Is(err, apperr.NotFound):
		return "Record not found."
	case errors.Is(err, apperr.Forbidden):
		return "You do not have access to this record."
	case errors.Is(err, apperr.DependencyRestricted):
		return "Cannot delete: dependent records exist."
	case errors.Is(err, apperr.Conflict):
		return "The record was changed by someone else. Reload and try again."
	default:
		return "Unexpected server error."
	}
}
