package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EventTypeCheckoutCompleted is the only event type the activation
// pipeline processes. Everything else is rejected, never silently dropped.
const EventTypeCheckoutCompleted = "checkout_completed"

// ErrAuthenticity is returned when a webhook cannot be proven to come from
// the payment provider: bad signature, missing signature or missing
// verification secret. The pipeline fails closed on all three.
var ErrAuthenticity = errors.New("webhook authenticity verification failed")

// Event is a decoded provider notification. Payload stays raw until a
// caller asks for the typed session; signature verification happens over
// the exact request bytes, before any of this exists.
type Event struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Livemode bool            `json:"livemode"`
	Payload  json.RawMessage `json:"payload"`
}

// Session is the typed view of a checkout-completed payload. Handle and
// email are the two fields provisioning cannot proceed without.
type Session struct {
	Handle      string `json:"handle" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Plan        string `json:"plan" validate:"max=50"`
	BrandColors string `json:"brand_colors" validate:"max=255"`
	LogoURL     string `json:"logo_url" validate:"max=500"`
	CRMKeys     string `json:"crm_keys"`
}

// UnsupportedTypeError marks events the pipeline does not handle.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported event type: %s", e.Type)
}

// ValidationError marks a malformed or incomplete payload. It is never
// retryable; redelivering the same bytes cannot fix them.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid checkout payload: " + e.Reason
}

// Session decodes and validates the checkout-session payload. Missing or
// mistyped fields surface here as a ValidationError instead of leaking
// empty strings deeper into the pipeline.
func (ev *Event) Session() (*Session, error) {
	if ev.Type != EventTypeCheckoutCompleted {
		return nil, &UnsupportedTypeError{Type: ev.Type}
	}
	if len(ev.Payload) == 0 {
		return nil, &ValidationError{Reason: "payload is empty"}
	}

	var s Session
	if err := json.Unmarshal(ev.Payload, &s); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	s.Handle = strings.ToLower(strings.TrimSpace(s.Handle))
	s.Email = strings.TrimSpace(s.Email)

	if err := validator.New().Struct(&s); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	return &s, nil
}
