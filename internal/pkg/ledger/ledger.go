package ledger

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/quotebeam/quotebeam/app/models"
	"github.com/quotebeam/quotebeam/internal/pkg/checkout"
	"github.com/quotebeam/quotebeam/internal/pkg/provisioning"
)

// ErrUnknownEvent is returned by Complete when no processing record exists
// for the event id.
var ErrUnknownEvent = errors.New("no ledger record for event")

// Outcome is the result of a Begin call. Exactly one concurrent caller per
// event id gets ShouldProcess=true; everyone else sees the prior record and
// either short-circuits (terminal) or defers (still processing).
type Outcome struct {
	ShouldProcess bool
	Prior         *models.WebhookEvent
}

// Store is the idempotency ledger. Begin is the single atomic point of the
// pipeline; if it cannot reach its backing storage the caller must fail the
// delivery so the provider retries, never guess.
type Store interface {
	Begin(ctx context.Context, ev *checkout.Event) (*Outcome, error)
	Complete(ctx context.Context, eventID string, result *provisioning.Result, procErr error) error
	Get(ctx context.Context, eventID string) (*models.WebhookEvent, error)
	List(ctx context.Context, limit int) ([]models.WebhookEvent, error)
}

// DecodeResult unpacks the stored provisioning result from a terminal
// ledger record. Returns nil for failed records.
func DecodeResult(rec *models.WebhookEvent) *provisioning.Result {
	if rec == nil || rec.ResultJSON == "" {
		return nil
	}
	var res provisioning.Result
	if err := json.Unmarshal([]byte(rec.ResultJSON), &res); err != nil {
		return nil
	}
	return &res
}

func encodeResult(result *provisioning.Result) (string, error) {
	if result == nil {
		return "", nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
