package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// LocalsUserKey is where JWTAuthMiddleware stores the authenticated user id.
const LocalsUserKey = "user_id"

// JWTAuthMiddleware guards REST routes with a Bearer token check. The
// websocket handshake authenticates separately via query token.
func JWTAuthMiddleware(v *JWTValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing auth"})
		}
		userID, err := v.Validate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(LocalsUserKey, userID)
		return c.Next()
	}
}
