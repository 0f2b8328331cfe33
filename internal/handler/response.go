package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/logger"
)

const dateLayout = "2006-01-02"

// statusFor maps a domain error kind to an HTTP status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrNotFound:
		return fiber.StatusNotFound
	case domain.ErrConflict:
		return fiber.StatusConflict
	case domain.ErrInvalidState, domain.ErrInvalidInput, domain.ErrInvalidID:
		return fiber.StatusBadRequest
	case domain.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case domain.ErrForbidden:
		return fiber.StatusForbidden
	case domain.ErrUpstreamUnavailable:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		logger.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
		msg = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// ErrorHandler is the Fiber fallback for errors returned by handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"error":   fe.Message,
		})
	}
	return respondError(c, err)
}

// queryDate parses an optional YYYY-MM-DD query parameter as midnight in
// the clock's location. Missing values yield the zero time.
func queryDate(c *fiber.Ctx, key string, clock domain.Clock) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, clock.Now().Location())
	if err != nil {
		return time.Time{}, domain.NewKindError(domain.ErrInvalidInput, key+" must be YYYY-MM-DD")
	}
	return t, nil
}
