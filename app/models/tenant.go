package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const apiKeyPrefix = "qb_"

// apiKeyBytes is the amount of random material behind every tenant API key.
const apiKeyBytes = 24

// Tenant is a provisioned white-label customer. The handle is the only
// stable identity: it is the upsert key, the subdomain/path segment and
// the thing the checkout session carries.
type Tenant struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UUID            string         `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	Handle          string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"handle" validate:"required,min=2,max=100"`
	Plan            string         `gorm:"type:varchar(50);default:'starter'" json:"plan"`
	BrandColors     string         `gorm:"type:varchar(255);default:''" json:"brand_colors"`
	LogoURL         string         `gorm:"type:varchar(500);default:''" json:"logo_url"`
	CRMKeys         string         `gorm:"type:text" json:"-"`
	APIKey          string         `gorm:"type:varchar(100);default:''" json:"-"`
	APIKeyHash      string         `gorm:"type:char(64);index;default:''" json:"-"`
	APIKeyPrefix    string         `gorm:"type:varchar(20);default:''" json:"api_key_prefix"`
	APIKeyCreatedAt *time.Time     `json:"api_key_created_at"`
	OwnerUserID     uint           `gorm:"index;default:0" json:"owner_user_id"`
	OwnerEmail      string         `gorm:"type:varchar(200);default:''" json:"owner_email"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the public tenant identifier.
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == "" {
		t.UUID = uuid.New().String()
	}
	return nil
}

// HasAPIKey reports whether the tenant already holds an issued key.
// Provisioning must not mint a fresh key when one exists; rotation is an
// explicit admin operation.
func (t *Tenant) HasAPIKey() bool {
	return t != nil && t.APIKey != ""
}

// IssueAPIKey generates a new API key, sets the key material on the struct
// and returns the raw secret. Callers must persist the struct afterwards.
func (t *Tenant) IssueAPIKey() (string, error) {
	rawKey, prefix, hash, err := generateAPIKeyMaterial()
	if err != nil {
		return "", err
	}
	now := time.Now()
	t.APIKey = rawKey
	t.APIKeyHash = hash
	t.APIKeyPrefix = prefix
	t.APIKeyCreatedAt = &now
	return rawKey, nil
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func generateAPIKeyMaterial() (string, string, string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", err
	}
	rawKey := apiKeyPrefix + hex.EncodeToString(b)
	if len(rawKey) < 12 {
		return "", "", "", fmt.Errorf("api key generation failed: key too short")
	}
	prefix := rawKey[:min(len(rawKey), 12)]
	hash := HashAPIKey(rawKey)
	return rawKey, prefix, hash, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
