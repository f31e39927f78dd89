package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ledgerd/internal/api"
	"ledgerd/internal/api/handlers"
	"ledgerd/internal/limiter"
	"ledgerd/internal/repository"
	"ledgerd/internal/service"
	"ledgerd/pkg/config"
	"ledgerd/pkg/logger"
	"ledgerd/pkg/postgres"
	"ledgerd/pkg/redisclient"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// @title ledgerd API
// @version 1.0
// @description Rate-limited ledger API: record, list, delete, and summarize transactions per owner.

// @host localhost:8080
// @BasePath /

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting ledgerd")

	// Ensure schema before the pool serves requests
	if err := postgres.RunMigrations(&cfg.Database); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Counter store for the rate limiter
	var (
		counterStore limiter.CounterStore
		rdb          *redis.Client
	)
	switch cfg.RateLimit.Store {
	case "memory":
		memStore := limiter.NewMemoryStore()
		defer memStore.Stop()
		counterStore = memStore
		appLogger.Info("Rate limiter using in-memory counters")
	default:
		rdb, err = redisclient.NewClient(ctx, &cfg.Redis, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		counterStore = limiter.NewRedisStore(rdb)
	}

	rateLimiter := limiter.New(
		counterStore,
		cfg.RateLimit.Limit,
		cfg.RateLimit.Window,
		cfg.RateLimit.FailOpen,
		appLogger,
	)

	// Repositories and services
	txRepo := repository.NewTransactionRepository(db, appLogger)
	txService := service.NewTransactionService(txRepo, rateLimiter, appLogger)

	// Handlers
	txHandler := handlers.NewTransactionHandler(txService, cfg.RateLimit.Window, appLogger)
	healthHandler := handlers.NewHealthHandler(db, rdb, appLogger)

	// Setup router
	app := api.SetupRouter(txHandler, healthHandler, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
