package middleware

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/threadflow/configs"
	"github.com/maheshrc27/threadflow/internal/service"
	"github.com/maheshrc27/threadflow/pkg/utils"
)

const ServiceKeyHeader = "X-Service-Key"

type AuthMiddleware struct {
	s   service.ApiKeyService
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config, service service.ApiKeyService) *AuthMiddleware {
	return &AuthMiddleware{s: service, cfg: cfg}
}

// AuthMiddleware accepts either the session cookie or an API key, given as
// the X-API-Key header or the api_key query parameter.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)
		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if tokenString == "" && apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Keys or cookies",
			})
		}

		if apiKey != "" {
			userID, err := m.s.GetUserID(c.Context(), apiKey)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid API key",
				})
			}
			c.Locals("user_id", userID.String())
			return c.Next()
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			c.Cookie(&fiber.Cookie{
				Name:   m.cfg.CookieName,
				Value:  "",
				Path:   "/",
				MaxAge: -1,
			})

			slog.Info("token validation failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}

// ServiceKey guards internal endpoints called by the scheduler trigger.
func ServiceKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		given := c.Get(ServiceKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid service key",
			})
		}
		return c.Next()
	}
}
