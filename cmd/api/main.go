package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rakapradana/pustaka-backend/api/routes"
	"github.com/rakapradana/pustaka-backend/internal/audit"
	checkoutsvc "github.com/rakapradana/pustaka-backend/internal/checkout"
	"github.com/rakapradana/pustaka-backend/internal/entitlements"
	"github.com/rakapradana/pustaka-backend/internal/gateway"
	ipaymugw "github.com/rakapradana/pustaka-backend/internal/gateway/ipaymu"
	midtransgw "github.com/rakapradana/pustaka-backend/internal/gateway/midtrans"
	"github.com/rakapradana/pustaka-backend/internal/subscriptions"
	"github.com/rakapradana/pustaka-backend/internal/transactions"
	"github.com/rakapradana/pustaka-backend/internal/webhooks"
	"github.com/rakapradana/pustaka-backend/pkg/config"
	"github.com/rakapradana/pustaka-backend/pkg/db"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
	"github.com/rakapradana/pustaka-backend/pkg/metrics"
	"github.com/rakapradana/pustaka-backend/pkg/migrate"
	"github.com/rakapradana/pustaka-backend/pkg/outbox"
	"github.com/rakapradana/pustaka-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	auditService, err := audit.NewService(audit.ServiceParams{
		Repo:   audit.NewRepository(dbClient.DB()),
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	subscriptionRepo := subscriptions.NewRepository(dbClient.DB())
	transactionRepo := transactions.NewRepository(dbClient.DB())

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptionRepo,
		TransactionRunner: dbClient,
		Audit:             auditService,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	entitlementService, err := entitlements.NewService(entitlements.ServiceParams{
		Subscriptions: subscriptionService,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlement service", err)
		os.Exit(1)
	}

	ipaymuClient, err := ipaymugw.NewClient(cfg.IPaymu)
	if err != nil {
		logg.Error(context.Background(), "failed to create ipaymu client", err)
		os.Exit(1)
	}
	midtransClient, err := midtransgw.NewClient(cfg.Midtrans)
	if err != nil {
		logg.Error(context.Background(), "failed to create midtrans client", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Subscriptions:     subscriptionRepo,
		Transactions:      transactionRepo,
		Gateways:          []gateway.Client{ipaymuClient, midtransClient},
		TransactionRunner: dbClient,
		Audit:             auditService,
		Config:            cfg.Checkout,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	transactionService, err := transactions.NewService(transactionRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create transaction service", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(registry)
	reconciler, err := webhooks.NewReconciler(webhooks.ReconcilerParams{
		Lifecycle:         subscriptionService,
		Transactions:      transactionRepo,
		TransactionRunner: dbClient,
		Metrics:           webhookMetrics,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook reconciler", err)
		os.Exit(1)
	}

	ipaymuHook, err := webhooks.NewIPaymuService(ipaymuClient, reconciler, webhookMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create ipaymu webhook service", err)
		os.Exit(1)
	}
	midtransHook, err := webhooks.NewMidtransService(midtransClient, reconciler, webhookMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create midtrans webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Registry:      registry,
			Subscriptions: subscriptionService,
			Entitlements:  entitlementService,
			Checkout:      checkoutService,
			Transactions:  transactionService,
			Audit:         auditService,
			IPaymuHook:    ipaymuHook,
			MidtransHook:  midtransHook,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
