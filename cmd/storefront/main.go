// Package main is the entry point for the storefront API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
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

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/orders"
	"storefront/internal/router"
	"storefront/internal/session"
	"storefront/internal/storage"
	"storefront/internal/store"
)

func main() {
	// A local .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	sqlDB, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Run pending migrations.
	if err := database.Migrate(sqlDB); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(sqlDB); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	db := sqlx.NewDb(sqlDB, "pgx")

	// Connect to Valkey (sessions + listing cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	sessionStore := session.NewStore(valkeyClient, cfg.SessionTTL)
	listingCache := cache.NewListingCache(valkeyClient, cfg.ListingCacheTTL)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	productStore := store.NewProductStore(db)
	reviewStore := store.NewReviewStore(db)
	orderStore := store.NewOrderStore(db)

	// Connect to S3-compatible object storage (optional; image uploads
	// answer 503 without it).
	var images handlers.ImageStorage
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	switch {
	case err != nil:
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	case storageClient != nil:
		images = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	default:
		slog.Warn("s3 storage not configured, product image uploads disabled")
	}

	// Services.
	catalogSvc := catalog.NewService(categoryStore, productStore, reviewStore, listingCache)
	orderSvc := orders.NewService(orderStore, productStore, userStore)

	// Rate limiters.
	apiLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer apiLimiter.Stop()
	authLimiter := middleware.NewRateLimiter(cfg.LoginRateLimitPerMin, time.Minute)
	defer authLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore,
		router.Limits{API: apiLimiter, Auth: authLimiter},
		handlers.NewAuth(sessionStore, userStore),
		handlers.NewCatalog(catalogSvc, images),
		handlers.NewOrders(orderSvc),
	)

	// WriteTimeout leaves room for image uploads to object storage.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
