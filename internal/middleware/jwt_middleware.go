package middleware

import (
	"log/slog"
	"strings"

	"firstcome/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Authenticator resolves a bearer token to the staff account it belongs to.
type Authenticator interface {
	Authenticate(tokenString string) (*models.User, error)
}

// AuthRequired is a Fiber middleware that only lets staff with a valid JWT through.
func AuthRequired(auth Authenticator, logger *slog.Logger) fiber.Handler {
	logger = logger.With("component", "auth_middleware")
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		user, err := auth.Authenticate(parts[1])
		if err != nil {
			logger.Debug("jwt validation failed", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("username", user.Username)

		return c.Next()
	}
}
