package middleware

import (
	"crypto/hmac"

	"github.com/gofiber/fiber/v2"
)

// APIKeyHeader carries the shared secret for protected routes
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests whose X-API-Key header does not match key.
// An empty key disables the check.
func RequireAPIKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}

		provided := c.Get(APIKeyHeader)
		if provided == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing API key",
			})
		}

		// Compare in constant time
		if !hmac.Equal([]byte(provided), []byte(key)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API key",
			})
		}

		return c.Next()
	}
}
