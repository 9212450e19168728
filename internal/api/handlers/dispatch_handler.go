package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/threadflow/internal/queue"
)

type DispatchHandler struct {
	d queue.DispatchRunner
}

func NewDispatchHandler(d queue.DispatchRunner) *DispatchHandler {
	return &DispatchHandler{d: d}
}

// RunPass runs one dispatch pass synchronously, for external schedulers.
func (h *DispatchHandler) RunPass(c *fiber.Ctx) error {
	summary, err := h.d.RunDispatchPass(c.Context(), time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"summary": summary,
	})
}
