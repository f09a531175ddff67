package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/quotebeam/quotebeam/app/models"
	"github.com/quotebeam/quotebeam/app/repository"
)

// installMemoryFactory swaps the global factory for one backed by an
// in-memory tenant store and restores the previous factory on cleanup.
func installMemoryFactory(t *testing.T) *repository.MemoryTenantRepository {
	t.Helper()

	repo := repository.NewMemoryTenantRepository()
	prev := repository.GetGlobalFactory()
	repository.SetGlobalFactory(repository.NewFactoryWithRepositories(&repository.Repositories{Tenant: repo}))
	t.Cleanup(func() { repository.SetGlobalFactory(prev) })
	return repo
}

func newAPIKeyProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/v1/whoami", APIKeyAuthMiddleware(), func(c *fiber.Ctx) error {
		tenant := TenantFromContext(c)
		if tenant == nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"handle": tenant.Handle})
	})
	return app
}

func provisionKeyedTenant(t *testing.T, repo *repository.MemoryTenantRepository, handle string) (tenant *models.Tenant, rawKey string) {
	t.Helper()
	ctx := context.Background()

	tenant, err := repo.FindOrCreateByHandle(ctx, handle)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	rawKey, err = tenant.IssueAPIKey()
	if err != nil {
		t.Fatalf("unexpected key error: %v", err)
	}
	if _, err := repo.UpsertByHandle(ctx, handle, repository.TenantFields{
		Plan:         "starter",
		APIKey:       tenant.APIKey,
		APIKeyHash:   tenant.APIKeyHash,
		APIKeyPrefix: tenant.APIKeyPrefix,
	}); err != nil {
		t.Fatalf("unexpected upsert error: %v", err)
	}
	return tenant, rawKey
}

func TestAPIKeyAuthMiddleware(t *testing.T) {
	repo := installMemoryFactory(t)
	_, rawKey := provisionKeyedTenant(t, repo, "acme")
	app := newAPIKeyProtectedApp()

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{name: "x-api-key header", headers: map[string]string{"X-API-Key": rawKey}, want: http.StatusOK},
		{name: "bearer token", headers: map[string]string{"Authorization": "Bearer " + rawKey}, want: http.StatusOK},
		{name: "wrong key", headers: map[string]string{"X-API-Key": "qb_deadbeef"}, want: http.StatusUnauthorized},
		{name: "missing key", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
		for k, v := range tt.headers {
			req.Header.Set(k, v)
		}
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("%s: request failed: %v", tt.name, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, resp.StatusCode)
		}
	}
}

func TestAPIKeyAuthMiddlewareRotatedKeyInvalidatesOld(t *testing.T) {
	repo := installMemoryFactory(t)
	tenant, oldKey := provisionKeyedTenant(t, repo, "acme")
	app := newAPIKeyProtectedApp()

	if _, err := tenant.IssueAPIKey(); err != nil {
		t.Fatalf("unexpected key error: %v", err)
	}
	if err := repo.Save(context.Background(), tenant); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	req.Header.Set("X-API-Key", oldKey)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected rotated-away key to be rejected, got %d", resp.StatusCode)
	}
}
