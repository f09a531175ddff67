package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/quotebeam/quotebeam/app/models"
)

func TestMemoryTenantRepositoryFindOrCreate(t *testing.T) {
	repo := NewMemoryTenantRepository()
	ctx := context.Background()

	first, err := repo.FindOrCreateByHandle(ctx, "Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Handle != "acme" {
		t.Fatalf("expected normalized handle, got %q", first.Handle)
	}
	if first.UUID == "" {
		t.Fatalf("expected uuid to be assigned")
	}

	second, err := repo.FindOrCreateByHandle(ctx, "ACME")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same tenant, got ids %d and %d", first.ID, second.ID)
	}
	if repo.TenantCount() != 1 {
		t.Fatalf("expected one tenant, got %d", repo.TenantCount())
	}
}

func TestMemoryTenantRepositoryUpsertLastWriteWins(t *testing.T) {
	repo := NewMemoryTenantRepository()
	ctx := context.Background()

	if _, err := repo.UpsertByHandle(ctx, "acme", TenantFields{Plan: "starter", LogoURL: "v1.png"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated, err := repo.UpsertByHandle(ctx, "acme", TenantFields{Plan: "pro", LogoURL: "v2.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Plan != "pro" || updated.LogoURL != "v2.png" {
		t.Fatalf("expected second write to win, got %+v", updated)
	}
	if repo.TenantCount() != 1 {
		t.Fatalf("upsert must not duplicate, got %d tenants", repo.TenantCount())
	}
}

func TestMemoryTenantRepositoryLinkOwner(t *testing.T) {
	repo := NewMemoryTenantRepository()
	ctx := context.Background()

	tenant, err := repo.FindOrCreateByHandle(ctx, "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.LinkOwner(ctx, tenant.ID, "a@x.com"); err != nil {
		t.Fatalf("unexpected link error: %v", err)
	}

	// The owner account is created through the user repository, not by
	// the tenant store reaching around it.
	owner, err := repo.Users.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("expected owner in user repository: %v", err)
	}
	if owner.Status != models.STATUS_PENDING {
		t.Fatalf("expected pending owner, got %q", owner.Status)
	}

	// Linking the same email again reuses the account.
	if err := repo.LinkOwner(ctx, tenant.ID, "a@x.com"); err != nil {
		t.Fatalf("unexpected relink error: %v", err)
	}
	stored, err := repo.GetByHandle(ctx, "acme")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if stored.OwnerUserID != owner.ID {
		t.Fatalf("expected owner %d, got %d", owner.ID, stored.OwnerUserID)
	}

	if err := repo.LinkOwner(ctx, 9999, "a@x.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for unknown tenant, got %v", err)
	}
}

func TestMemoryUserRepositoryCreateIsIdempotent(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	first, err := models.CreateOwner("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	stored, err := repo.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}

	second, err := models.CreateOwner("a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("duplicate create must be a no-op, got %v", err)
	}

	after, err := repo.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if after.ID != stored.ID || after.ActivationToken != stored.ActivationToken {
		t.Fatalf("duplicate create must keep the first row, got %+v vs %+v", after, stored)
	}
}

func TestMemoryTenantRepositoryGetByAPIKeyHash(t *testing.T) {
	repo := NewMemoryTenantRepository()
	ctx := context.Background()

	tenant, err := repo.FindOrCreateByHandle(ctx, "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key, err := tenant.IssueAPIKey()
	if err != nil {
		t.Fatalf("unexpected key error: %v", err)
	}
	if _, err := repo.UpsertByHandle(ctx, "acme", TenantFields{
		APIKey:       tenant.APIKey,
		APIKeyHash:   tenant.APIKeyHash,
		APIKeyPrefix: tenant.APIKeyPrefix,
	}); err != nil {
		t.Fatalf("unexpected upsert error: %v", err)
	}

	found, err := repo.GetByAPIKeyHash(ctx, models.HashAPIKey(key))
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if found.Handle != "acme" {
		t.Fatalf("unexpected tenant: %+v", found)
	}

	if _, err := repo.GetByAPIKeyHash(ctx, models.HashAPIKey("qb_other")); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
