package ledger

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quotebeam/quotebeam/app/models"
	"github.com/quotebeam/quotebeam/internal/pkg/checkout"
	"github.com/quotebeam/quotebeam/internal/pkg/provisioning"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a ledger over the webhook_events table. The unique
// index on event_id carries the first-writer-wins guarantee.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Begin(ctx context.Context, ev *checkout.Event) (*Outcome, error) {
	record := &models.WebhookEvent{
		EventID:     strings.TrimSpace(ev.ID),
		EventType:   ev.Type,
		Livemode:    ev.Livemode,
		Status:      models.WebhookStatusProcessing,
		PayloadJSON: string(ev.Payload),
	}

	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(record)
	if tx.Error != nil {
		return nil, tx.Error
	}

	var stored models.WebhookEvent
	if err := s.db.WithContext(ctx).Where("event_id = ?", record.EventID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &Outcome{
		ShouldProcess: tx.RowsAffected > 0,
		Prior:         &stored,
	}, nil
}

func (s *gormStore) Complete(ctx context.Context, eventID string, result *provisioning.Result, procErr error) error {
	resultJSON, err := encodeResult(result)
	if err != nil {
		return err
	}
	status := models.WebhookStatusSucceeded
	errMsg := ""
	if procErr != nil {
		status = models.WebhookStatusFailed
		errMsg = procErr.Error()
	}

	tx := s.db.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Updates(map[string]any{
			"status":           status,
			"result_json":      resultJSON,
			"processing_error": errMsg,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUnknownEvent
	}
	return nil
}

func (s *gormStore) Get(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	var rec models.WebhookEvent
	if err := s.db.WithContext(ctx).Where("event_id = ?", strings.TrimSpace(eventID)).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *gormStore) List(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var recs []models.WebhookEvent
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}
