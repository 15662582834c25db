package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rakapradana/pustaka-backend/api/controllers"
	"github.com/rakapradana/pustaka-backend/api/middleware"
	"github.com/rakapradana/pustaka-backend/internal/audit"
	checkoutsvc "github.com/rakapradana/pustaka-backend/internal/checkout"
	"github.com/rakapradana/pustaka-backend/internal/entitlements"
	"github.com/rakapradana/pustaka-backend/internal/subscriptions"
	"github.com/rakapradana/pustaka-backend/internal/transactions"
	"github.com/rakapradana/pustaka-backend/internal/webhooks"
	"github.com/rakapradana/pustaka-backend/pkg/config"
	"github.com/rakapradana/pustaka-backend/pkg/db"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
	"github.com/rakapradana/pustaka-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	Subscriptions subscriptions.Service
	Entitlements  *entitlements.Service
	Checkout      *checkoutsvc.Service
	Transactions  *transactions.Service
	Audit         *audit.Service
	IPaymuHook    *webhooks.IPaymuService
	MidtransHook  *webhooks.MidtransService
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/ipaymu", controllers.IPaymuWebhook(deps.IPaymuHook, logg))
		r.Post("/midtrans", controllers.MidtransWebhook(deps.MidtransHook, logg))
	})

	r.Get("/api/v1/plans", controllers.ListPlans())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		r.Get("/me/subscription", controllers.MySubscription(deps.Subscriptions, logg))
		r.Get("/me/entitlement", controllers.MyEntitlement(deps.Entitlements, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Get("/events", controllers.ListAdminEvents(deps.Audit, logg))
		r.Get("/transactions/{orderId}", controllers.GetTransaction(deps.Transactions, logg))
	})

	return r
}
