package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator is the part of Service the middleware needs
type TokenValidator interface {
	ValidateToken(accessToken string) (*TokenClaims, error)
}

// AuthMiddleware creates a middleware that validates JWT tokens.
// The token comes from the Authorization header, or the access_token cookie
// set for browser sessions.
func AuthMiddleware(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")

		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization header format. Use: Bearer <token>",
				})
			}
			token = parts[1]
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)

		return c.Next()
	}
}

// UserID returns the authenticated user ID set by AuthMiddleware
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
