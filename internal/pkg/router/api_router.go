package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/quotebeam/quotebeam/app/controllers"
	"github.com/quotebeam/quotebeam/app/repository"
	"github.com/quotebeam/quotebeam/internal/pkg/cache"
	"github.com/quotebeam/quotebeam/internal/pkg/constants"
	"github.com/quotebeam/quotebeam/internal/pkg/env"
	"github.com/quotebeam/quotebeam/internal/pkg/middleware"
	"github.com/quotebeam/quotebeam/internal/pkg/ratelimit"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

// InstallRouter wires the public tenant-facing API. The lead ingest
// endpoint is the one public mutation surface, so it sits behind both the
// fixed-window rate limiter and tenant API key auth.
func (h ApiRouter) InstallRouter(app *fiber.App) {
	factory := repository.GetGlobalFactory()

	limiter := ratelimit.New(newRateLimitStore(), leadRateLimit(), time.Minute)
	leadCtrl := controllers.NewLeadController(factory.GetLeadRepository())

	app.Post(constants.LeadIngestRoute,
		ratelimit.Middleware(limiter, constants.RouteNameLeadCapture),
		middleware.APIKeyAuthMiddleware(),
		leadCtrl.HandleLeadCapture,
	)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
}

// newRateLimitStore picks the counter backend: Redis when configured so
// limits hold across instances, otherwise an in-process map.
func newRateLimitStore() ratelimit.Store {
	if env.GetEnv("RATE_LIMIT_STORE", "memory") == "redis" {
		return ratelimit.NewRedisStore(cache.GetClient())
	}
	return ratelimit.NewMemoryStore(5 * time.Minute)
}

func leadRateLimit() int {
	if v, err := strconv.Atoi(env.GetEnv("LEAD_RATE_LIMIT", "30")); err == nil && v > 0 {
		return v
	}
	return 30
}
