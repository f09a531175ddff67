package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quotebeam/quotebeam/app/models"
)

type tenantRepository struct {
	db    *gorm.DB
	users UserRepository
}

// NewTenantRepository creates a tenant repository backed by GORM. Owner
// accounts created by LinkOwner go through the given user repository.
func NewTenantRepository(db *gorm.DB, users UserRepository) TenantRepository {
	return &tenantRepository{db: db, users: users}
}

func (r *tenantRepository) FindOrCreateByHandle(ctx context.Context, handle string) (*models.Tenant, error) {
	h := normalizeHandle(handle)
	if h == "" {
		return nil, errors.New("handle is required")
	}

	var t models.Tenant
	err := r.db.WithContext(ctx).Where("handle = ?", h).First(&t).Error
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	t = models.Tenant{Handle: h}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "handle"}},
		DoNothing: true,
	}).Create(&t).Error; err != nil {
		return nil, err
	}
	// Re-read so a concurrent creator's row wins consistently.
	if err := r.db.WithContext(ctx).Where("handle = ?", h).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) GetByHandle(ctx context.Context, handle string) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.WithContext(ctx).Where("handle = ?", normalizeHandle(handle)).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.WithContext(ctx).Where("api_key_hash = ? AND api_key_hash <> ''", hash).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) UpsertByHandle(ctx context.Context, handle string, fields TenantFields) (*models.Tenant, error) {
	h := normalizeHandle(handle)
	if h == "" {
		return nil, errors.New("handle is required")
	}

	t := models.Tenant{
		Handle:       h,
		Plan:         fields.Plan,
		BrandColors:  fields.BrandColors,
		LogoURL:      fields.LogoURL,
		CRMKeys:      fields.CRMKeys,
		APIKey:       fields.APIKey,
		APIKeyHash:   fields.APIKeyHash,
		APIKeyPrefix: fields.APIKeyPrefix,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "handle"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan",
			"brand_colors",
			"logo_url",
			"crm_keys",
			"api_key",
			"api_key_hash",
			"api_key_prefix",
			"updated_at",
		}),
	}).Create(&t).Error; err != nil {
		return nil, err
	}

	// Ensure ID and generated columns are populated after upsert.
	var stored models.Tenant
	if err := r.db.WithContext(ctx).Where("handle = ?", h).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// LinkOwner attaches the paying user to the tenant, creating a pending
// owner account when the email is unknown. Linking is additive: an email
// that already owns another tenant is not an error.
func (r *tenantRepository) LinkOwner(ctx context.Context, tenantID uint, email string) error {
	e := strings.TrimSpace(email)
	if tenantID == 0 || e == "" {
		return errors.New("tenant_id and email are required")
	}

	user, err := r.users.GetByEmail(ctx, e)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created, cerr := models.CreateOwner(e)
		if cerr != nil {
			return cerr
		}
		if cerr := r.users.Create(ctx, created); cerr != nil {
			return cerr
		}
		// Re-read so a concurrent creator's row wins consistently.
		if user, err = r.users.GetByEmail(ctx, e); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ?", tenantID).
		Updates(map[string]any{"owner_user_id": user.ID, "owner_email": e}).Error
}

func (r *tenantRepository) Save(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Save(tenant).Error
}

func normalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
