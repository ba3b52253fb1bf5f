// handlers/errors.go
package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"pingpair/services"
)

// statusFor maps core error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidPairing):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidState):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func messageFor(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "not found"
	case fiber.StatusConflict:
		return "conflict with current state"
	case fiber.StatusUnprocessableEntity:
		return "invalid pairing"
	case fiber.StatusBadRequest:
		return "invalid input"
	default:
		return "internal error"
	}
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		h.log.Error("[HTTP] request failed", "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"error": messageFor(status)})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": messageFor(status),
		"cause": err.Error(),
	})
}

// bind decodes and validates a JSON body; an empty body is validated as the
// zero value. When ok is false the error response has already been written.
func (h *Handler) bind(c *fiber.Ctx, req interface{}) (ok bool, err error) {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+": "+fe.Tag())
			}
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "fields": fields})
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}
	return true, nil
}
