package main

import (
	"context"
	"log"

	"ledgerd/internal/models"
	"ledgerd/internal/repository"
	"ledgerd/pkg/config"
	"ledgerd/pkg/logger"
	"ledgerd/pkg/postgres"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Seeds a handful of demo transactions so the API has data to serve
// locally. Safe to rerun; it just appends more rows.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	if err := postgres.RunMigrations(&cfg.Database); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	txRepo := repository.NewTransactionRepository(db, appLogger)

	appLogger.Info("Seeding demo transactions...")

	demo := []*models.Transaction{
		{Owner: "demo", Title: "Salary", Amount: decimal.NewFromInt(2000), Category: "Income"},
		{Owner: "demo", Title: "Rent", Amount: decimal.NewFromInt(-800), Category: "Housing"},
		{Owner: "demo", Title: "Groceries", Amount: decimal.RequireFromString("-132.45"), Category: "Food"},
		{Owner: "demo", Title: "Freelance invoice", Amount: decimal.RequireFromString("450.50"), Category: "Income"},
	}

	for _, tx := range demo {
		if err := txRepo.Create(ctx, tx); err != nil {
			appLogger.Fatal("Failed to seed transaction",
				zap.String("title", tx.Title),
				zap.Error(err),
			)
		}
		appLogger.Info("Seeded transaction",
			zap.Int64("id", tx.ID),
			zap.String("title", tx.Title),
		)
	}

	appLogger.Info("Seeding completed")
}
