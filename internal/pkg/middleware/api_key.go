package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/quotebeam/quotebeam/app/models"
	"github.com/quotebeam/quotebeam/app/repository"
	"github.com/quotebeam/quotebeam/internal/pkg/applog"
)

// TenantContextKey is the fiber.Ctx locals key the resolved tenant is
// stored under.
const TenantContextKey = "TENANT"

// APIKeyAuthMiddleware authenticates requests carrying a tenant API key
// header and resolves the owning tenant.
func APIKeyAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		factory := repository.GetGlobalFactory()
		if factory == nil {
			applog.GetLogger().Error("api key middleware: repository factory not installed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Store unavailable"})
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		hash := models.HashAPIKey(apiKey)
		tenant, err := factory.GetTenantRepository().GetByAPIKeyHash(ctx, hash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
			}
			applog.GetLogger().WithError(err).Error("api key lookup failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "API key verification failed"})
		}

		c.Locals(TenantContextKey, tenant)
		return c.Next()
	}
}

// TenantFromContext returns the tenant resolved by APIKeyAuthMiddleware.
func TenantFromContext(c *fiber.Ctx) *models.Tenant {
	tenant, _ := c.Locals(TenantContextKey).(*models.Tenant)
	return tenant
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
