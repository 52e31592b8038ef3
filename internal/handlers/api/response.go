package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"contentboard/internal/db"
	"contentboard/internal/models"
	"contentboard/internal/validation"
)

// Error codes carried in the error envelope.
const (
	CodeBadRequest       = "bad_request"
	CodeUnauthorized     = "unauthorized"
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodeAlreadyProcessed = "already_processed"
	CodeAlreadyUsed      = "already_used"
	CodeExpired          = "expired"
	CodeInternal         = "internal_error"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated returns a 201 response with data wrapped in the standard envelope.
func jsonCreated(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"code":   code,
		"error":  message,
	})
}

// validationError returns a 422 for a rejected field.
func validationError(c fiber.Ctx, field, message string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"status": "error",
		"code":   CodeValidation,
		"error":  message,
		"field":  field,
	})
}

// writeError maps domain errors onto HTTP responses. Unknown errors are
// logged and reported as 500 without detail.
func writeError(c fiber.Ctx, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return validationError(c, verr.Field, verr.Message)
	}

	switch {
	case errors.Is(err, db.ErrContentNotFound):
		return jsonError(c, fiber.StatusNotFound, CodeNotFound, "content not found")
	case errors.Is(err, db.ErrRequestNotFound):
		return jsonError(c, fiber.StatusNotFound, CodeNotFound, "request not found")
	case errors.Is(err, db.ErrClientNotFound):
		return jsonError(c, fiber.StatusNotFound, CodeNotFound, "client not found")
	case errors.Is(err, db.ErrUserNotFound):
		return jsonError(c, fiber.StatusNotFound, CodeNotFound, "user not found")
	case errors.Is(err, db.ErrApprovalLinkNotFound):
		return jsonError(c, fiber.StatusNotFound, CodeNotFound, "approval link not found")
	case errors.Is(err, db.ErrApprovalLinkExpired):
		return jsonError(c, fiber.StatusGone, CodeExpired, "approval link has expired")
	case errors.Is(err, db.ErrApprovalLinkAlreadyUsed):
		return jsonError(c, fiber.StatusConflict, CodeAlreadyUsed, "approval link was already used")
	case errors.Is(err, db.ErrRequestAlreadyProcessed):
		return jsonError(c, fiber.StatusConflict, CodeAlreadyProcessed, "request was already converted or rejected")
	case errors.Is(err, db.ErrContentClientMismatch):
		return validationError(c, "client_id", err.Error())
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	return jsonError(c, fiber.StatusInternalServerError, CodeInternal, "internal server error")
}

// actor returns the name recorded for changes made by the current user.
func actor(c fiber.Ctx) string {
	if user, ok := c.Locals("user").(*models.User); ok {
		return user.DisplayName()
	}
	return "system"
}

func invalidField(field, message string) error {
	return validation.Errorf(field, "%s", message)
}
