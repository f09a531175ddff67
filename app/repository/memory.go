package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotebeam/quotebeam/app/models"
)

// MemoryUserRepository is an in-process user store with the same lookup
// and idempotent-create semantics as the GORM implementation.
type MemoryUserRepository struct {
	mu     sync.Mutex
	users  map[string]*models.User
	nextID uint
}

// NewMemoryUserRepository creates an empty in-process user store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[strings.TrimSpace(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	e := strings.TrimSpace(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[e]; ok {
		return nil
	}
	r.nextID++
	cp := *user
	cp.ID = r.nextID
	r.users[e] = &cp
	return nil
}

// MemoryTenantRepository is an in-process tenant store with the same
// find-or-create/upsert semantics as the GORM implementation. Tests and
// single-node dev setups inject it instead of a database.
type MemoryTenantRepository struct {
	mu      sync.Mutex
	tenants map[string]*models.Tenant
	nextID  uint

	// Users backs LinkOwner's owner lookup/creation, mirroring the GORM
	// tenant repository's collaborator.
	Users UserRepository

	// FailWith, when set, makes every store call fail with that error.
	// Tests use it to simulate an unreachable upstream.
	FailWith error
}

// NewMemoryTenantRepository creates an empty in-process tenant store.
func NewMemoryTenantRepository() *MemoryTenantRepository {
	return &MemoryTenantRepository{
		tenants: make(map[string]*models.Tenant),
		Users:   NewMemoryUserRepository(),
	}
}

func (r *MemoryTenantRepository) FindOrCreateByHandle(ctx context.Context, handle string) (*models.Tenant, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	h := normalizeHandle(handle)
	if h == "" {
		return nil, errors.New("handle is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tenants[h]; ok {
		cp := *t
		return &cp, nil
	}
	r.nextID++
	t := &models.Tenant{
		ID:        r.nextID,
		UUID:      uuid.New().String(),
		Handle:    h,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.tenants[h] = t
	cp := *t
	return &cp, nil
}

func (r *MemoryTenantRepository) GetByHandle(ctx context.Context, handle string) (*models.Tenant, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[normalizeHandle(handle)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryTenantRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*models.Tenant, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tenants {
		if t.APIKeyHash != "" && t.APIKeyHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryTenantRepository) UpsertByHandle(ctx context.Context, handle string, fields TenantFields) (*models.Tenant, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	h := normalizeHandle(handle)
	if h == "" {
		return nil, errors.New("handle is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[h]
	if !ok {
		r.nextID++
		t = &models.Tenant{
			ID:        r.nextID,
			UUID:      uuid.New().String(),
			Handle:    h,
			CreatedAt: time.Now(),
		}
		r.tenants[h] = t
	}
	t.Plan = fields.Plan
	t.BrandColors = fields.BrandColors
	t.LogoURL = fields.LogoURL
	t.CRMKeys = fields.CRMKeys
	t.APIKey = fields.APIKey
	t.APIKeyHash = fields.APIKeyHash
	t.APIKeyPrefix = fields.APIKeyPrefix
	t.UpdatedAt = time.Now()

	cp := *t
	return &cp, nil
}

func (r *MemoryTenantRepository) LinkOwner(ctx context.Context, tenantID uint, email string) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	e := strings.TrimSpace(email)
	if tenantID == 0 || e == "" {
		return errors.New("tenant_id and email are required")
	}

	user, err := r.Users.GetByEmail(ctx, e)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created, cerr := models.CreateOwner(e)
		if cerr != nil {
			return cerr
		}
		if cerr := r.Users.Create(ctx, created); cerr != nil {
			return cerr
		}
		if user, err = r.Users.GetByEmail(ctx, e); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tenants {
		if t.ID == tenantID {
			t.OwnerUserID = user.ID
			t.OwnerEmail = e
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *MemoryTenantRepository) Save(ctx context.Context, tenant *models.Tenant) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tenants[tenant.Handle]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *tenant
	cp.ID = stored.ID
	r.tenants[tenant.Handle] = &cp
	return nil
}

// OwnerByEmail returns the linked owner account, for test assertions.
func (r *MemoryTenantRepository) OwnerByEmail(email string) *models.User {
	user, err := r.Users.GetByEmail(context.Background(), email)
	if err != nil {
		return nil
	}
	return user
}

// TenantCount returns the number of stored tenants, for test assertions.
func (r *MemoryTenantRepository) TenantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tenants)
}
