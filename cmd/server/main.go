package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mpettersen/lettersmith/internal"
	"github.com/mpettersen/lettersmith/internal/ai"
	"github.com/mpettersen/lettersmith/internal/ai/mock"
	"github.com/mpettersen/lettersmith/internal/ai/openai"
	"github.com/mpettersen/lettersmith/internal/billing"
	"github.com/mpettersen/lettersmith/internal/email"
	"github.com/mpettersen/lettersmith/internal/handler"
	"github.com/mpettersen/lettersmith/internal/metrics"
	"github.com/mpettersen/lettersmith/internal/middleware"
	"github.com/mpettersen/lettersmith/internal/repository"
	"github.com/mpettersen/lettersmith/internal/service"
	"github.com/mpettersen/lettersmith/internal/storage"
	"github.com/mpettersen/lettersmith/internal/worker"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize file storage
	var store storage.Storage
	switch cfg.StorageProvider {
	case "r2":
		store, err = storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	default:
		store, err = storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize email service
	emailService, err := email.NewSMTPEmailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, cfg.BaseURL, logger)
	if err != nil {
		return fmt.Errorf("email service initialization failed: %w", err)
	}

	// Initialize AI provider
	var provider ai.Provider
	switch cfg.AIProvider {
	case "openai":
		provider, err = openai.New(openai.Config{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			ProviderConfig: ai.ProviderConfig{
				MaxRetries:     cfg.AIMaxRetries,
				RetryBaseDelay: cfg.AIRetryBaseDelay,
				RequestTimeout: cfg.AIRequestTimeout,
			},
		}, logger)
		if err != nil {
			return fmt.Errorf("openai provider initialization failed: %w", err)
		}
	default:
		provider = mock.New(logger)
		logger.Warn("using mock AI provider, generated letters are canned")
	}

	// Initialize services
	userService := service.NewUserService(repo, logger)
	entitlementService := service.NewEntitlementService(repo, logger)
	letterService := service.NewLetterService(repo, provider, entitlementService, store, emailService, logger)
	paymentService := service.NewPaymentService(userService, service.ProductCatalog{
		MonthlyProductID: cfg.GumroadMonthlyProductID,
		AnnualProductID:  cfg.GumroadAnnualProductID,
	}, logger)

	// Initialize webhook signature verifier
	verifier := billing.NewVerifier(cfg.GumroadSecret)
	if cfg.GumroadSecret == "" && cfg.GumroadAllowUnsigned {
		verifier.AllowUnsigned = true
		logger.Warn("accepting unsigned Gumroad webhooks")
	}

	// Start session cleanup worker
	janitor := worker.NewJanitor(userService, cfg.SessionCleanupInterval, logger)
	janitor.Start(ctx)
	defer janitor.Stop()

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, cfg.AdminEmails, isSecure)
	authLimiter := middleware.NewAuthRateLimiter(logger)
	generateLimiter := middleware.NewGenerationRateLimiter(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, emailService, logger, isSecure)
	letterHandler := handler.NewLetterHandler(letterService, entitlementService, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(paymentService, emailService, logger)
	webhookHandler := handler.NewWebhookHandler(verifier, paymentService, logger)
	healthHandler := handler.NewHealthHandler(db, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	healthHandler.RegisterRoutes(mux)
	webhookHandler.RegisterRoutes(mux)

	// Prometheus metrics, behind basic auth when credentials are configured
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Local storage serves share snapshots directly; R2 serves them itself
	if cfg.StorageProvider == "local" {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)
	requireAdmin := middleware.Stack(authMw.WithUser, authMw.RequireAdmin)

	authHandler.RegisterRoutes(mux, requireUser, authLimiter.LimitLogin, authLimiter.LimitRegister)
	letterHandler.RegisterRoutes(mux, requireUser, generateLimiter.Limit)
	subscriptionHandler.RegisterRoutes(mux, requireUser, requireAdmin)

	// Outermost middleware applies to every route
	root := middleware.Stack(
		securityMw.Handler,
		loggingMw.Handler,
		metrics.Middleware,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
