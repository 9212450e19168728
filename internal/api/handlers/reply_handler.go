package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/maheshrc27/threadflow/internal/queue"
	"github.com/maheshrc27/threadflow/internal/service"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

type ReplyHandler struct {
	s     service.ReplyService
	queue queue.Enqueuer
}

func NewReplyHandler(service service.ReplyService, q queue.Enqueuer) *ReplyHandler {
	return &ReplyHandler{s: service, queue: q}
}

// ReceiveReply records an incoming reply and queues it for auto-reply.
func (h *ReplyHandler) ReceiveReply(c *fiber.Ctx) error {
	var ev transfer.ReplyEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	id, isNew, err := h.s.Record(c.Context(), GetUserID(c), &ev)
	if err != nil {
		if err == service.ErrPersonaNotFound {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if isNew {
		if err := queue.EnqueueReply(h.queue, queue.ProcessReplyPayload{ThreadReplyID: id}); err != nil {
			slog.Error("failed to queue reply", "thread_reply_id", id, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error queueing reply",
			})
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":     id,
		"queued": isNew,
	})
}

func (h *ReplyHandler) CreateRule(c *fiber.Ctx) error {
	var req transfer.AutoReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	rule, err := h.s.CreateRule(c.Context(), GetUserID(c), &req)
	if err != nil {
		if err == service.ErrPersonaNotFound {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

func (h *ReplyHandler) ListRules(c *fiber.Ctx) error {
	personaID, err := uuid.Parse(c.Query("persona_id"))
	if err != nil {
		return badID(c)
	}

	rules, err := h.s.ListRules(c.Context(), GetUserID(c), personaID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(rules)
}

func (h *ReplyHandler) RemoveRule(c *fiber.Ctx) error {
	ruleID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	if err := h.s.RemoveRule(c.Context(), GetUserID(c), ruleID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
