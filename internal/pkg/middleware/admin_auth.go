package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/quotebeam/quotebeam/internal/pkg/env"
	"github.com/quotebeam/quotebeam/internal/pkg/security"
)

// AdminAuthMiddleware guards operator endpoints with the configured admin
// token, accepted as a header or query parameter. Rejection carries no
// detail about why the token failed.
func AdminAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractAdminToken(c)
		if !security.VerifyAdminToken(token, env.GetEnv("ADMIN_TOKEN", "")) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.Next()
	}
}

func extractAdminToken(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.Get("X-Admin-Token")); v != "" {
		return v
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.Query("admin_token"))
}
