package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quotebeam/quotebeam/app/models"
)

type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a lead repository backed by GORM.
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) UpsertByTenantAndEmail(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if lead == nil || lead.TenantID == 0 || strings.TrimSpace(lead.Email) == "" {
		return nil, errors.New("tenant_id and email are required")
	}
	lead.Email = strings.TrimSpace(lead.Email)

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "email"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"phone",
			"address",
			"source",
			"updated_at",
		}),
	}).Create(lead).Error; err != nil {
		return nil, err
	}

	var stored models.Lead
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", lead.TenantID, lead.Email).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *leadRepository) CountByTenantID(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Lead{}).
		Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}
