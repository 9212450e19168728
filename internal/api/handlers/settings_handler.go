package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/threadflow/internal/service"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetSettingsInfo(c *fiber.Ctx) error {
	userId := GetUserID(c)
	personaID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	settingsInfo, err := h.s.GetSettingsInfo(c.Context(), userId, personaID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(settingsInfo)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	userId := GetUserID(c)
	personaID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	var req transfer.SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	settings, err := h.s.UpdateSettings(c.Context(), userId, personaID, &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(settings)
}
