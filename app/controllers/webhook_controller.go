package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/quotebeam/quotebeam/app/models"
	"github.com/quotebeam/quotebeam/internal/pkg/applog"
	"github.com/quotebeam/quotebeam/internal/pkg/checkout"
	"github.com/quotebeam/quotebeam/internal/pkg/ledger"
	"github.com/quotebeam/quotebeam/internal/pkg/mail"
	"github.com/quotebeam/quotebeam/internal/pkg/provisioning"
)

// SignatureHeader carries the provider's HMAC over the raw request body.
const SignatureHeader = "X-Checkout-Signature"

const (
	// beginRetryAttempts bounds how long a delivery waits for a concurrent
	// delivery of the same event id before deferring to redelivery.
	beginRetryAttempts = 4
	beginRetryBaseWait = 150 * time.Millisecond

	provisionTimeout = 30 * time.Second
)

// WebhookController is the webhook entry point: it drives a delivery
// through received -> verified -> ledger-checked -> provisioned ->
// acknowledged, with the ledger record as the source of truth for whether
// an event happened.
type WebhookController struct {
	verifier *checkout.Verifier
	store    ledger.Store
	engine   *provisioning.Engine
}

// NewWebhookController wires the webhook entry point.
func NewWebhookController(verifier *checkout.Verifier, store ledger.Store, engine *provisioning.Engine) *WebhookController {
	return &WebhookController{verifier: verifier, store: store, engine: engine}
}

// HandleCheckoutWebhook processes an inbound provider delivery.
func (wc *WebhookController) HandleCheckoutWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	ev, err := wc.verifier.Verify(rawBody, c.Get(SignatureHeader))
	if err != nil {
		// Bad signature or undecodable body: tell the provider it is a bad
		// request and leave no trace in the ledger.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	if ev.Type != checkout.EventTypeCheckoutCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":   false,
			"eventId":   ev.ID,
			"eventType": ev.Type,
			"error":     (&checkout.UnsupportedTypeError{Type: ev.Type}).Error(),
		})
	}

	// The provisioning run must survive an aborted HTTP request; the
	// ledger record, not the response, decides whether the event happened.
	ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
	defer cancel()

	outcome, err := wc.beginWithRetry(ctx, ev)
	if err != nil {
		applog.WithEvent(ev.ID, ev.Type).WithError(err).Error("idempotency ledger unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "error": "ledger unavailable, retry later"})
	}
	if outcome == nil {
		// A concurrent delivery of the same id still holds the processing
		// record; defer to the provider's redelivery.
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "error": "event is being processed, retry later"})
	}

	if !outcome.ShouldProcess {
		return wc.respondFromRecord(c, outcome)
	}

	result, provErr := wc.engine.Provision(ctx, ev)
	if cerr := wc.store.Complete(ctx, ev.ID, result, provErr); cerr != nil {
		applog.WithEvent(ev.ID, ev.Type).WithError(cerr).Error("ledger completion failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "failed to record outcome, retry later"})
	}

	if provErr != nil {
		if provisioning.IsRetryable(provErr) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "error": provErr.Error()})
		}
		// Non-retryable: acknowledge so the provider stops redelivering;
		// the failure is on record for the admin replay path.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success":   false,
			"eventId":   ev.ID,
			"eventType": ev.Type,
			"error":     provErr.Error(),
		})
	}

	// Welcome mail is fire-and-forget; losing it never fails the pipeline.
	if session, serr := ev.Session(); serr == nil {
		go func() { _ = mail.SendTenantWelcome(session.Email, session.Handle, result.LoginURL) }()
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"eventId":   ev.ID,
		"eventType": ev.Type,
		"result":    result,
	})
}

// beginWithRetry runs the ledger's atomic begin, waiting with bounded
// backoff while a concurrent delivery of the same event id holds the
// processing record. First to create the record wins; all others defer.
func (wc *WebhookController) beginWithRetry(ctx context.Context, ev *checkout.Event) (*ledger.Outcome, error) {
	wait := beginRetryBaseWait
	for attempt := 0; attempt < beginRetryAttempts; attempt++ {
		outcome, err := wc.store.Begin(ctx, ev)
		if err != nil {
			return nil, err
		}
		if outcome.ShouldProcess || outcome.Prior.IsTerminal() {
			return outcome, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, nil
}

func (wc *WebhookController) respondFromRecord(c *fiber.Ctx, outcome *ledger.Outcome) error {
	rec := outcome.Prior
	if rec.Status == models.WebhookStatusSucceeded {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success":   true,
			"eventId":   rec.EventID,
			"eventType": rec.EventType,
			"result":    ledger.DecodeResult(rec),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   false,
		"eventId":   rec.EventID,
		"eventType": rec.EventType,
		"error":     rec.ProcessingError,
	})
}
