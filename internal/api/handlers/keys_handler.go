package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/service"
)

type ApiKeyHandler struct {
	s service.ApiKeyService
}

func NewApiKeyHandler(s service.ApiKeyService) *ApiKeyHandler {
	return &ApiKeyHandler{s: s}
}

type createKeyRequest struct {
	Label string `json:"label"`
}

// CreateApiKey responds with the only copy of the new secret.
func (h *ApiKeyHandler) CreateApiKey(c *fiber.Ctx) error {
	var req createKeyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	key, err := h.s.Create(c.Context(), GetUserID(c), req.Label)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(key)
}

func (h *ApiKeyHandler) ListKeys(c *fiber.Ctx) error {
	keys, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(keys)
}

func (h *ApiKeyHandler) RemoveAPIKey(c *fiber.Ctx) error {
	keyID, err := uuid.Parse(c.Query("id"))
	if err != nil {
		return badID(c)
	}
	if err := h.s.RemoveAPIKey(c.Context(), GetUserID(c), keyID); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
