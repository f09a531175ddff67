package models

import "time"

// Webhook event processing states. An event moves processing -> succeeded
// or processing -> failed exactly once; records are never deleted so the
// table doubles as the audit trail for replay and inspection.
const (
	WebhookStatusProcessing = "processing"
	WebhookStatusSucceeded  = "succeeded"
	WebhookStatusFailed     = "failed"
)

// WebhookEvent is the idempotency ledger record for a provider event.
// The unique index on EventID is the single compare-and-swap point of the
// whole pipeline: whoever inserts the processing row first runs the
// provisioning engine, everyone else short-circuits or defers.
type WebhookEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	EventID         string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"event_id"`
	EventType       string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Livemode        bool      `gorm:"default:false" json:"livemode"`
	Status          string    `gorm:"type:varchar(20);not null;index;default:'processing'" json:"status"`
	PayloadJSON     string    `gorm:"type:longtext;not null" json:"payload_json"`
	ResultJSON      string    `gorm:"type:text" json:"result_json"`
	ProcessingError string    `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the record reached a final state.
func (e *WebhookEvent) IsTerminal() bool {
	return e.Status == WebhookStatusSucceeded || e.Status == WebhookStatusFailed
}
