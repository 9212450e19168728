package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/threadflow/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	f, err := file.Open()
	if err != nil {
		return errorResponse(c, err)
	}
	defer f.Close()

	url, err := h.s.UploadImage(c.Context(), GetUserID(c), f)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"url": url,
	})
}
