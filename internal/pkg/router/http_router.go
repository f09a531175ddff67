package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quotebeam/quotebeam/app/controllers"
	"github.com/quotebeam/quotebeam/app/repository"
	"github.com/quotebeam/quotebeam/internal/pkg/checkout"
	"github.com/quotebeam/quotebeam/internal/pkg/constants"
	"github.com/quotebeam/quotebeam/internal/pkg/database"
	"github.com/quotebeam/quotebeam/internal/pkg/env"
	"github.com/quotebeam/quotebeam/internal/pkg/ledger"
	"github.com/quotebeam/quotebeam/internal/pkg/middleware"
	"github.com/quotebeam/quotebeam/internal/pkg/provisioning"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

// InstallRouter wires the activation pipeline: the provider-facing webhook
// and the operator-facing admin surface. Secrets are resolved eagerly so
// a misconfigured deployment dies here, not on the first delivery.
func (h HttpRouter) InstallRouter(app *fiber.App) {
	db := database.GetDB()
	factory := repository.GetGlobalFactory()
	if factory == nil {
		factory = repository.NewFactory(db)
		repository.SetGlobalFactory(factory)
	}

	store := ledger.NewGormStore(db)
	verifier := checkout.NewVerifier(env.MustGetEnv("CHECKOUT_WEBHOOK_SECRET"))
	engine := provisioning.NewEngine(factory.GetTenantRepository(), env.MustGetEnv("APP_BASE_URL"))

	webhookCtrl := controllers.NewWebhookController(verifier, store, engine)
	// Provider webhooks: no CSRF, authenticity is the body signature.
	app.Post(constants.WebhookCheckoutRoute, webhookCtrl.HandleCheckoutWebhook)

	adminCtrl := controllers.NewAdminController(checkout.NewClientFromEnv(), store, engine, factory.GetTenantRepository())
	admin := app.Group(constants.AdminGroup, middleware.AdminAuthMiddleware())
	admin.Get(constants.AdminReplayRoute, adminCtrl.HandleReplay)
	admin.Get(constants.AdminEventsRoute, adminCtrl.HandleListEvents)
	admin.Post(constants.AdminRotateKeyRoute, adminCtrl.HandleRotateKey)
}
