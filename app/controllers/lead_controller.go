package controllers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/quotebeam/quotebeam/app/models"
	"github.com/quotebeam/quotebeam/app/repository"
	"github.com/quotebeam/quotebeam/internal/pkg/applog"
	"github.com/quotebeam/quotebeam/internal/pkg/middleware"
)

type leadCaptureRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"max=150"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address" validate:"max=255"`
	Source  string `json:"source" validate:"max=100"`
}

// LeadController is the public capture surface tenants embed in their
// quote widgets. API key auth and the rate limiter sit in front of it.
type LeadController struct {
	leads repository.LeadRepository
}

// NewLeadController wires the lead capture endpoint.
func NewLeadController(leads repository.LeadRepository) *LeadController {
	return &LeadController{leads: leads}
}

// HandleLeadCapture upserts a lead for the authenticated tenant. Repeated
// submissions from the same visitor update the existing record.
func (lc *LeadController) HandleLeadCapture(c *fiber.Ctx) error {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req leadCaptureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Body must be valid JSON"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lead, err := lc.leads.UpsertByTenantAndEmail(ctx, &models.Lead{
		TenantID: tenant.ID,
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Address:  req.Address,
		Source:   req.Source,
	})
	if err != nil {
		applog.GetLogger().WithError(err).WithField("tenant_id", tenant.ID).Error("lead upsert failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store lead"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"lead_id": lead.ID,
	})
}
