package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/quotebeam/quotebeam/app/repository"
	"github.com/quotebeam/quotebeam/internal/pkg/applog"
	"github.com/quotebeam/quotebeam/internal/pkg/checkout"
	"github.com/quotebeam/quotebeam/internal/pkg/ledger"
	"github.com/quotebeam/quotebeam/internal/pkg/provisioning"
)

// EventRetriever fetches historical events from the payment provider.
// Satisfied by *checkout.Client; tests substitute a stub.
type EventRetriever interface {
	RetrieveEvent(ctx context.Context, eventID string) (*checkout.Event, error)
}

// AdminController hosts the operator recovery surface: event replay,
// ledger inspection and explicit API key rotation. Auth is enforced by
// AdminAuthMiddleware on the route group.
type AdminController struct {
	provider EventRetriever
	store    ledger.Store
	engine   *provisioning.Engine
	tenants  repository.TenantRepository
}

// NewAdminController wires the admin surface.
func NewAdminController(provider EventRetriever, store ledger.Store, engine *provisioning.Engine, tenants repository.TenantRepository) *AdminController {
	return &AdminController{provider: provider, store: store, engine: engine, tenants: tenants}
}

// HandleReplay re-fetches a historical event from the provider and runs it
// through the provisioning engine again. Replay deliberately bypasses the
// ledger's first-write-wins gate: it is an explicit operator-initiated
// re-run, safe because provisioning converges on the tenant upsert.
func (ac *AdminController) HandleReplay(c *fiber.Ctx) error {
	eventID := strings.TrimSpace(c.Query("event_id"))
	if eventID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "event_id is required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ev, err := ac.provider.RetrieveEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, checkout.ErrEventNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "event not found at provider"})
		}
		applog.WithEvent(eventID, "").WithError(err).Error("replay event fetch failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch event from provider"})
	}

	if ev.Type != checkout.EventTypeCheckoutCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": (&checkout.UnsupportedTypeError{Type: ev.Type}).Error()})
	}

	result, provErr := ac.engine.Provision(ctx, ev)

	// Reconcile the ledger so a recovered failure reads as succeeded.
	// A replay of an event the ledger never saw is fine too.
	if cerr := ac.store.Complete(ctx, ev.ID, result, provErr); cerr != nil && !errors.Is(cerr, ledger.ErrUnknownEvent) {
		applog.WithEvent(ev.ID, ev.Type).WithError(cerr).Warn("ledger reconcile after replay failed")
	}

	if provErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": provErr.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"eventId":   ev.ID,
		"eventType": ev.Type,
		"livemode":  ev.Livemode,
		"result":    result,
	})
}

// HandleListEvents returns recent ledger records so an operator can tell
// "never tried" from "tried and failed" from "succeeded".
func (ac *AdminController) HandleListEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events, err := ac.store.List(ctx, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list events"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"events": events})
}

// HandleRotateKey mints a fresh API key for a tenant. This is the one
// sanctioned way to regenerate a key; provisioning never rotates silently.
func (ac *AdminController) HandleRotateKey(c *fiber.Ctx) error {
	handle := strings.TrimSpace(c.Params("handle"))
	if handle == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "handle is required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tenant, err := ac.tenants.GetByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tenant not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "tenant lookup failed"})
	}

	rawKey, err := tenant.IssueAPIKey()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "key generation failed"})
	}
	if err := ac.tenants.Save(ctx, tenant); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to persist rotated key"})
	}

	applog.GetLogger().WithField("handle", tenant.Handle).Info("tenant api key rotated")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":        true,
		"handle":         tenant.Handle,
		"api_key":        rawKey,
		"api_key_prefix": tenant.APIKeyPrefix,
	})
}
