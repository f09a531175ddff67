package models

import (
	"time"

	"gorm.io/gorm"
)

// Lead is a captured prospect for a tenant, ingested through the public
// capture URL. TenantID+Email form the upsert key so repeated submissions
// from the same visitor update instead of duplicating.
type Lead struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TenantID  uint           `gorm:"not null;index:ux_leads_tenant_email,unique,priority:1" json:"tenant_id"`
	Email     string         `gorm:"type:varchar(200);not null;index:ux_leads_tenant_email,unique,priority:2" json:"email" validate:"required,email"`
	Name      string         `gorm:"type:varchar(150);default:''" json:"name" validate:"max=150"`
	Phone     string         `gorm:"type:varchar(50);default:''" json:"phone" validate:"max=50"`
	Address   string         `gorm:"type:varchar(255);default:''" json:"address" validate:"max=255"`
	Source    string         `gorm:"type:varchar(100);default:''" json:"source" validate:"max=100"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
