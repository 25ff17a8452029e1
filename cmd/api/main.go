package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BradenHooton/breachwatch/internal/auth"
	"github.com/BradenHooton/breachwatch/internal/background"
	"github.com/BradenHooton/breachwatch/internal/config"
	"github.com/BradenHooton/breachwatch/internal/database"
	"github.com/BradenHooton/breachwatch/internal/handlers"
	"github.com/BradenHooton/breachwatch/internal/metrics"
	middlewareCustom "github.com/BradenHooton/breachwatch/internal/middleware"
	"github.com/BradenHooton/breachwatch/internal/repositories"
	"github.com/BradenHooton/breachwatch/internal/routes"
	"github.com/BradenHooton/breachwatch/internal/services"
	pkghttp "github.com/BradenHooton/breachwatch/pkg/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(registry)
	if err := db.RegisterPoolMetrics(registry); err != nil {
		logger.Error("failed to register database metrics", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	counterRepo := repositories.NewUsageCounterRepository(db)
	searchRepo := repositories.NewSearchRepository(db)
	analyticsRepo := repositories.NewAnalyticsRepository(db)
	monitoredRepo := repositories.NewMonitoredEmailRepository(db)

	// Token verification: provider JWKS when configured, shared secret otherwise
	var verifier auth.TokenVerifier
	if cfg.Auth.JWKSURL != "" {
		jwksVerifier, err := auth.NewJWKSVerifier(cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			logger.Error("failed to initialize JWKS verifier", slog.Any("error", err))
			os.Exit(1)
		}
		verifier = jwksVerifier
	} else {
		verifier = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	}

	// Initialize services
	breachClient := services.NewBreachClient(cfg.Breach.BaseURL, cfg.Breach.Timeout, logger)
	userService := services.NewUserService(userRepo, logger)
	quotaService := services.NewQuotaService(counterRepo, cfg.Quota.FreeDailySearchLimit, logger, recorder)
	searchService := services.NewSearchService(quotaService, breachClient, searchRepo, analyticsRepo, logger, recorder)
	monitorService := services.NewMonitorService(monitoredRepo, logger)
	billingService := services.NewBillingService(
		services.NewStripeAPI(cfg.Stripe.SecretKey),
		userRepo,
		cfg.Stripe.PriceID,
		cfg.Stripe.FrontendURL,
		cfg.Stripe.WebhookSecret,
		logger,
	)

	// Monitor poller with AWS SES notifications
	var poller *background.MonitorPoller
	if cfg.Monitor.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		emailService, err := services.NewAWSSESEmailService(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		cancel()
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		poller = background.NewMonitorPoller(monitoredRepo, userRepo, breachClient, emailService, logger, recorder, cfg.Monitor.Interval)
	}

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	deps := routes.Dependencies{
		Verifier:                verifier,
		Resolver:                userService,
		SearchHandler:           handlers.NewSearchHandler(searchService, logger),
		MonitorHandler:          handlers.NewMonitorHandler(monitorService, logger),
		BillingHandler:          handlers.NewBillingHandler(billingService, logger),
		UsageHandler:            handlers.NewUsageHandler(searchService, logger),
		SearchRequestsPerMinute: cfg.Server.SearchRequestsPerMinute,
		IPConfig:                ipConfig,
		Logger:                  logger,
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middlewareCustom.Metrics(recorder))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	router.Route("/api", func(r chi.Router) {
		routes.RegisterRoutes(r, deps)
	})

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start monitor poller
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	defer pollerCancel()

	if poller != nil {
		go poller.Start(pollerCtx)
	} else {
		logger.Info("monitor poller disabled")
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	pollerCancel()
	if poller != nil {
		poller.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
