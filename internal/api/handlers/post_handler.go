package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/threadflow/internal/service"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

type PostHandler struct {
	s service.PostService
	p service.PublishService
}

func NewPostHandler(service service.PostService, publish service.PublishService) *PostHandler {
	return &PostHandler{s: service, p: publish}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	post, err := h.s.Create(c.Context(), userID, &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	post, err := h.s.PostInfo(c.Context(), GetUserID(c), postID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	var req transfer.PostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	post, err := h.s.Update(c.Context(), GetUserID(c), postID, &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	if err := h.s.Remove(c.Context(), GetUserID(c), postID); err != nil {
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	result, err := h.p.PublishNow(c.Context(), GetUserID(c), postID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"threads_id": result.RemoteID,
	})
}

func (h *PostHandler) ResetPost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	if err := h.s.Reset(c.Context(), GetUserID(c), postID); err != nil {
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
