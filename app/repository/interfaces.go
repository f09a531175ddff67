package repository

import (
	"context"

	"github.com/quotebeam/quotebeam/app/models"
)

// TenantFields is the set of tenant attributes a provisioning run owns.
// UpsertByHandle overwrites exactly these; last write wins.
type TenantFields struct {
	Plan         string
	BrandColors  string
	LogoURL      string
	CRMKeys      string
	APIKey       string
	APIKeyHash   string
	APIKeyPrefix string
}

// TenantRepository defines the tenant store operations the provisioning
// engine depends on. The engine only sees success/failure signals, never
// the storage technology.
type TenantRepository interface {
	FindOrCreateByHandle(ctx context.Context, handle string) (*models.Tenant, error)
	GetByHandle(ctx context.Context, handle string) (*models.Tenant, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.Tenant, error)
	UpsertByHandle(ctx context.Context, handle string, fields TenantFields) (*models.Tenant, error)
	LinkOwner(ctx context.Context, tenantID uint, email string) error
	Save(ctx context.Context, tenant *models.Tenant) error
}

// UserRepository defines the owner-account operations used when linking
// a paying customer to a tenant.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// LeadRepository defines lead-capture persistence for the public ingest
// endpoint.
type LeadRepository interface {
	UpsertByTenantAndEmail(ctx context.Context, lead *models.Lead) (*models.Lead, error)
	CountByTenantID(ctx context.Context, tenantID uint) (int64, error)
}
