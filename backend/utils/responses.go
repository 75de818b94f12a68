package utils

import (
	"errors"
	"log"
	"net/http"

	"habitgrowth/backend/apperrors"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse is the envelope used by the progress endpoints.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Success writes a JSON success envelope.
func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// Error writes a JSON error envelope with err's message.
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   http.StatusText(status),
		Message: message,
	})
}

// StatusFor maps an error onto the HTTP status it should produce.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindConflict:
		return fiber.StatusBadRequest
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindPermission:
		return fiber.StatusForbidden
	case apperrors.KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is installed as the Fiber error handler. Classified errors expose
// their message; anything else is logged and answered with a generic 500.
func ErrorHandler(logger *log.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		if status >= fiber.StatusInternalServerError {
			logger.Printf("ERROR %s %s: %v", c.Method(), c.Path(), err)
			return Error(c, status, "Internal server error")
		}

		message := err.Error()
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		return Error(c, status, message)
	}
}
