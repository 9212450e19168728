package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/service"
	"github.com/maheshrc27/threadflow/internal/threads"
)

func GetUserID(c *fiber.Ctx) uuid.UUID {
	s, _ := c.Locals("user_id").(string)
	userID, _ := uuid.Parse(s)
	return userID
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func badID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid id",
	})
}

// errorResponse maps service errors onto HTTP statuses.
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "something went wrong"

	var pe *threads.PublishError
	switch {
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, service.ErrPersonaNotFound),
		errors.Is(err, service.ErrApiKeyNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrInvalidPost), errors.Is(err, service.ErrInvalidSettings),
		errors.Is(err, service.ErrPersonaNotConnected), errors.Is(err, service.ErrImageTooLarge),
		errors.Is(err, service.ErrUnsupportedType), errors.Is(err, service.ErrInvalidKeyLabel),
		errors.Is(err, service.ErrApiKeyLimit):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrAlreadyPublished), errors.Is(err, service.ErrPostLocked),
		errors.Is(err, service.ErrNotFailed):
		status, message = fiber.StatusConflict, err.Error()
	case errors.As(err, &pe):
		status, message = fiber.StatusBadGateway, pe.Error()
	default:
		slog.Error("request failed", "path", c.Path(), "error", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
