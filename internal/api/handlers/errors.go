package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/creatoraide/internal/service"
)

// ErrorHandler turns errors returned by handlers into JSON responses. Unknown
// errors become 500s whose details are hidden in production.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			validationErr *service.ValidationError
			referenceErr  *service.ReferenceError
			fiberErr      *fiber.Error
		)

		switch {
		case errors.As(err, &validationErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
		case errors.As(err, &referenceErr):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": referenceErr.Error()})
		case errors.Is(err, service.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		case errors.Is(err, service.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		case errors.Is(err, service.ErrInvalidState):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrUnsupportedPlatform),
			errors.Is(err, service.ErrUnsupportedMedia),
			errors.Is(err, service.ErrApiKeyLimit):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrStorageDisabled):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		case errors.As(err, &fiberErr):
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		message := err.Error()
		if production {
			message = "something went wrong"
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": message})
	}
}
