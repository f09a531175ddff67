package provisioning

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quotebeam/quotebeam/app/repository"
	"github.com/quotebeam/quotebeam/internal/pkg/applog"
	"github.com/quotebeam/quotebeam/internal/pkg/checkout"
	"github.com/quotebeam/quotebeam/internal/pkg/constants"
)

const defaultPlan = "starter"

// upstreamTimeout bounds every tenant-store round trip. A hung store must
// become a retryable failure, not a stuck webhook worker.
const upstreamTimeout = 15 * time.Second

// Result is what a successful provisioning run hands to onboarding.
type Result struct {
	LoginURL   string `json:"login_url"`
	APIKey     string `json:"api_key"`
	CaptureURL string `json:"capture_url"`
}

// Engine turns a verified checkout-completed event into a live tenant:
// find-or-create by handle, issue key material if absent, upsert the
// branded configuration and link the paying user as owner.
type Engine struct {
	tenants repository.TenantRepository
	baseURL string
	timeout time.Duration
}

// NewEngine creates a provisioning engine over the given tenant store.
// baseURL is the public application origin the derived URLs hang off.
func NewEngine(tenants repository.TenantRepository, baseURL string) *Engine {
	return &Engine{
		tenants: tenants,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: upstreamTimeout,
	}
}

// DeriveLoginURL returns the tenant portal URL for a handle.
func DeriveLoginURL(baseURL, handle string) string {
	return strings.TrimRight(baseURL, "/") + "/c/" + handle
}

// DeriveCaptureURL returns the lead ingestion endpoint tenants embed in
// their widgets. Authentication is by tenant API key, so the URL itself is
// handle-independent.
func DeriveCaptureURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + constants.LeadIngestRoute
}

// Provision runs the activation sequence for a checkout-completed event.
// Every step either completes or aborts the rest; the returned error is
// always classified so the caller can pick between acknowledge-and-record
// and redeliver-later.
func (e *Engine) Provision(ctx context.Context, ev *checkout.Event) (*Result, error) {
	session, err := ev.Session()
	if err != nil {
		applog.WithEvent(ev.ID, ev.Type).WithError(err).Error("checkout payload rejected")
		return nil, &Error{Step: StepExtract, Retryable: false, Err: err}
	}
	log := applog.WithEvent(ev.ID, ev.Type).WithFields(logrus.Fields{
		"handle":   session.Handle,
		"livemode": ev.Livemode,
	})

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tenant, err := e.tenants.FindOrCreateByHandle(ctx, session.Handle)
	if err != nil {
		log.WithError(err).Error("tenant lookup failed")
		return nil, &Error{Handle: session.Handle, Step: StepFindTenant, Retryable: true, Err: err}
	}

	// Key material is minted once per tenant. Re-provisioning the same
	// handle (ledger miss, admin replay) keeps the already-issued key so an
	// innocuous replay never invalidates credentials in the field.
	if !tenant.HasAPIKey() {
		if _, err := tenant.IssueAPIKey(); err != nil {
			log.WithError(err).Error("api key generation failed")
			return nil, &Error{Handle: session.Handle, Step: StepGenerateKey, Retryable: false, Err: err}
		}
	}

	plan := session.Plan
	if plan == "" {
		plan = defaultPlan
	}

	stored, err := e.tenants.UpsertByHandle(ctx, session.Handle, repository.TenantFields{
		Plan:         plan,
		BrandColors:  session.BrandColors,
		LogoURL:      session.LogoURL,
		CRMKeys:      session.CRMKeys,
		APIKey:       tenant.APIKey,
		APIKeyHash:   tenant.APIKeyHash,
		APIKeyPrefix: tenant.APIKeyPrefix,
	})
	if err != nil {
		log.WithError(err).Error("tenant upsert failed")
		return nil, &Error{Handle: session.Handle, Step: StepUpsertTenant, Retryable: true, Err: err}
	}

	if err := e.tenants.LinkOwner(ctx, stored.ID, session.Email); err != nil {
		log.WithError(err).Error("owner link failed")
		return nil, &Error{Handle: session.Handle, Step: StepLinkOwner, Retryable: true, Err: err}
	}

	log.WithField("tenant_id", stored.ID).Info("tenant provisioned")
	return &Result{
		LoginURL:   DeriveLoginURL(e.baseURL, stored.Handle),
		APIKey:     stored.APIKey,
		CaptureURL: DeriveCaptureURL(e.baseURL),
	}, nil
}
