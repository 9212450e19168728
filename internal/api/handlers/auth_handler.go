package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/threadflow/configs"
	"github.com/maheshrc27/threadflow/internal/service"
	"github.com/maheshrc27/threadflow/pkg/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	sessionDuration = 24 * time.Hour
	loginStateName  = "threadflow_login_state"
)

type AuthHandler struct {
	s   service.AuthService
	cfg config.Config
}

func NewAuthHandler(cfg config.Config, service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service, cfg: cfg}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	state, err := gonanoid.New()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     loginStateName,
		Value:    state,
		HTTPOnly: true,
		Path:     "/login",
		Expires:  time.Now().Add(10 * time.Minute),
	})
	return c.Redirect(h.s.LoginURL(state))
}

func (h *AuthHandler) LoginCallbackHandler(c *fiber.Ctx) error {
	if state := c.Cookies(loginStateName); state == "" || state != c.Query("state") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid login state",
		})
	}

	userID, err := h.s.LoginCallback(c.Context(), c.Query("code"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, userID.String(), sessionDuration)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
		Path:     "/",
		Expires:  time.Now().Add(sessionDuration),
	})

	return c.Redirect(h.cfg.FrontendURL, fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.SendStatus(fiber.StatusOK)
}
