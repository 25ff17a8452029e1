package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/breachwatch/internal/auth"
	"github.com/BradenHooton/breachwatch/internal/handlers"
	"github.com/BradenHooton/breachwatch/internal/middleware"
	pkghttp "github.com/BradenHooton/breachwatch/pkg/http"
)

// webhookRequestsPerMinute bounds unauthenticated webhook traffic per IP
const webhookRequestsPerMinute = 120

// Dependencies groups what the /api routes need
type Dependencies struct {
	Verifier auth.TokenVerifier
	Resolver auth.IdentityResolver

	SearchHandler  *handlers.SearchHandler
	MonitorHandler *handlers.MonitorHandler
	BillingHandler *handlers.BillingHandler
	UsageHandler   *handlers.UsageHandler

	SearchRequestsPerMinute int
	IPConfig                *pkghttp.IPConfig
	Logger                  *slog.Logger
}

// RegisterRoutes registers all application routes under router, which is
// expected to be mounted at /api
func RegisterRoutes(router chi.Router, deps Dependencies) {
	// Stripe signs its calls instead of sending a session token
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(middleware.RateLimitConfig{
			RequestsPerMinute: webhookRequestsPerMinute,
			IPConfig:          deps.IPConfig,
		}))
		deps.BillingHandler.RegisterWebhookRoutes(r)
	})

	// Protected routes - identity required
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(deps.Verifier, deps.Resolver, deps.Logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByUser(middleware.RateLimitConfig{
				RequestsPerMinute: deps.SearchRequestsPerMinute,
				IPConfig:          deps.IPConfig,
			}))
			deps.SearchHandler.RegisterRoutes(r)
		})

		deps.MonitorHandler.RegisterRoutes(r)
		deps.BillingHandler.RegisterRoutes(r)
		deps.UsageHandler.RegisterRoutes(r)
	})
}
