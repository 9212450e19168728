package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	config "github.com/maheshrc27/threadflow/configs"
	"github.com/maheshrc27/threadflow/internal/service"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

type PersonaHandler struct {
	s   service.PersonaService
	cfg config.Config
}

func NewPersonaHandler(service service.PersonaService, cfg config.Config) *PersonaHandler {
	return &PersonaHandler{s: service, cfg: cfg}
}

func (h *PersonaHandler) CreatePersona(c *fiber.Ctx) error {
	var req transfer.PersonaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	persona, err := h.s.Create(c.Context(), GetUserID(c), &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(persona)
}

func (h *PersonaHandler) ListPersonas(c *fiber.Ctx) error {
	personas, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(personas)
}

func (h *PersonaHandler) UpdatePersona(c *fiber.Ctx) error {
	personaID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	var req transfer.PersonaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	persona, err := h.s.Update(c.Context(), GetUserID(c), personaID, &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(persona)
}

func (h *PersonaHandler) DeletePersona(c *fiber.Ctx) error {
	personaID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	if err := h.s.Delete(c.Context(), GetUserID(c), personaID); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PersonaHandler) GetProfile(c *fiber.Ctx) error {
	personaID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	profile, err := h.s.Profile(c.Context(), GetUserID(c), personaID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": profile,
	})
}

func (h *PersonaHandler) Disconnect(c *fiber.Ctx) error {
	personaID, ok := paramID(c, "id")
	if !ok {
		return badID(c)
	}

	if err := h.s.Disconnect(c.Context(), GetUserID(c), personaID); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// Connect redirects to the Threads consent screen for one persona.
func (h *PersonaHandler) Connect(c *fiber.Ctx) error {
	personaID, err := uuid.Parse(c.Query("persona_id"))
	if err != nil {
		return badID(c)
	}

	authURL, err := h.s.AuthURL(c.Context(), GetUserID(c), personaID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Redirect(authURL)
}

// Callback completes the Threads OAuth flow and sends the browser back to
// the frontend with the outcome in the query string.
func (h *PersonaHandler) Callback(c *fiber.Ctx) error {
	params := url.Values{}

	if reason := c.Query("error_description", c.Query("error")); reason != "" {
		params.Set("error", reason)
		return c.Redirect(h.cfg.FrontendURL+"/auth/callback?"+params.Encode(), fiber.StatusFound)
	}

	personaID, err := h.s.Callback(c.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		params.Set("error", "threads_connect_failed")
	} else {
		params.Set("persona_id", personaID.String())
		params.Set("connected", "true")
	}
	return c.Redirect(h.cfg.FrontendURL+"/auth/callback?"+params.Encode(), fiber.StatusFound)
}
