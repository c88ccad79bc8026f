package handlers

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"

	config "github.com/velvetqueue/velvetqueue/configs"
	"github.com/velvetqueue/velvetqueue/internal/transfer"
	"github.com/velvetqueue/velvetqueue/pkg/utils"
)

type AuthHandler struct {
	cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// IssueToken exchanges the admin API key for a session JWT, set both as a
// cookie and returned in the body for non-browser clients.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req transfer.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.cfg.AdminAPIKey)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid API key",
		})
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, "admin", 24*time.Hour)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to issue token",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		MaxAge:   int((24 * time.Hour).Seconds()),
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token": token,
	})
}
