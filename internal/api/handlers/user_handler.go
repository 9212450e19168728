package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/threadflow/internal/service"
)

type UserHandler struct {
	s service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{s: service}
}

// GetUserInfo returns the account overview for the dashboard header.
func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	overview, err := h.s.GetUserInfo(c.Context(), GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return errorResponse(c, err)
	}

	return c.JSON(overview)
}
