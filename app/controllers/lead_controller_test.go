package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/quotebeam/quotebeam/app/models"
	"github.com/quotebeam/quotebeam/internal/pkg/middleware"
)

type fakeLeadRepo struct {
	mu     sync.Mutex
	leads  map[string]*models.Lead
	nextID uint
	fail   error
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[string]*models.Lead)}
}

func (r *fakeLeadRepo) key(tenantID uint, email string) string {
	return fmt.Sprintf("%d|%s", tenantID, email)
}

func (r *fakeLeadRepo) UpsertByTenantAndEmail(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := r.key(lead.TenantID, lead.Email)
	if existing, ok := r.leads[k]; ok {
		existing.Name = lead.Name
		existing.Phone = lead.Phone
		existing.Address = lead.Address
		existing.Source = lead.Source
		cp := *existing
		return &cp, nil
	}
	r.nextID++
	lead.ID = r.nextID
	r.leads[k] = lead
	cp := *lead
	return &cp, nil
}

func (r *fakeLeadRepo) CountByTenantID(ctx context.Context, tenantID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, l := range r.leads {
		if l.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func newLeadTestApp(repo *fakeLeadRepo, tenant *models.Tenant) *fiber.App {
	lc := NewLeadController(repo)
	app := fiber.New()
	app.Post("/v1/ingest/lead", func(c *fiber.Ctx) error {
		if tenant != nil {
			c.Locals(middleware.TenantContextKey, tenant)
		}
		return c.Next()
	}, lc.HandleLeadCapture)
	return app
}

func postLead(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/lead", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response failed: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, raw)
	}
	return resp.StatusCode, parsed
}

func TestHandleLeadCapture(t *testing.T) {
	repo := newFakeLeadRepo()
	tenant := &models.Tenant{ID: 7, Handle: "acme"}
	app := newLeadTestApp(repo, tenant)

	status, resp := postLead(t, app, `{"email":"visitor@x.com","name":"Visitor","source":"widget"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, resp)
	}
	if resp["success"] != true {
		t.Fatalf("unexpected response: %v", resp)
	}

	n, _ := repo.CountByTenantID(context.Background(), 7)
	if n != 1 {
		t.Fatalf("expected one stored lead, got %d", n)
	}
}

func TestHandleLeadCaptureUpserts(t *testing.T) {
	repo := newFakeLeadRepo()
	app := newLeadTestApp(repo, &models.Tenant{ID: 7, Handle: "acme"})

	if status, _ := postLead(t, app, `{"email":"visitor@x.com","name":"First"}`); status != http.StatusOK {
		t.Fatalf("first submit failed: %d", status)
	}
	if status, _ := postLead(t, app, `{"email":"visitor@x.com","name":"Updated"}`); status != http.StatusOK {
		t.Fatalf("second submit failed: %d", status)
	}

	n, _ := repo.CountByTenantID(context.Background(), 7)
	if n != 1 {
		t.Fatalf("resubmission must update, not duplicate: got %d leads", n)
	}
}

func TestHandleLeadCaptureValidation(t *testing.T) {
	app := newLeadTestApp(newFakeLeadRepo(), &models.Tenant{ID: 7, Handle: "acme"})

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `not-json`},
		{name: "missing email", body: `{"name":"Visitor"}`},
		{name: "bad email", body: `{"email":"nope"}`},
	}
	for _, tt := range tests {
		if status, resp := postLead(t, app, tt.body); status != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d (%v)", tt.name, status, resp)
		}
	}
}

func TestHandleLeadCaptureRequiresTenant(t *testing.T) {
	app := newLeadTestApp(newFakeLeadRepo(), nil)

	if status, _ := postLead(t, app, `{"email":"visitor@x.com"}`); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without tenant context, got %d", status)
	}
}

func TestHandleLeadCaptureStoreFailure(t *testing.T) {
	repo := newFakeLeadRepo()
	repo.fail = errors.New("store down")
	app := newLeadTestApp(repo, &models.Tenant{ID: 7, Handle: "acme"})

	if status, _ := postLead(t, app, `{"email":"visitor@x.com"}`); status != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store failure, got %d", status)
	}
}
