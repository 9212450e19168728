package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/threadflow/internal/service"
)

type ActivityHandler struct {
	l *service.ActivityLogger
}

func NewActivityHandler(l *service.ActivityLogger) *ActivityHandler {
	return &ActivityHandler{l: l}
}

func (h *ActivityHandler) ListActivity(c *fiber.Ctx) error {
	logs, err := h.l.List(c.Context(), GetUserID(c), c.QueryInt("limit", 0))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(logs)
}
