package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"sales-backoffice/internal/config"
	"sales-backoffice/internal/db"
	"sales-backoffice/internal/logger"
	"sales-backoffice/migrations"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	log := logger.Must(logger.New(cfg.LogLevel)).Named("migrate")
	defer func() { _ = log.Sync() }()

	connCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := db.NewPool(connCtx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	found, err := db.DiscoverMigrations(migrations.FS)
	if err != nil {
		log.Fatal("failed to discover migrations", zap.Error(err))
	}

	applied, err := db.Migrate(context.Background(), pool, found, log)
	if err != nil {
		log.Error("migration failed", zap.Int("applied", applied), zap.Error(err))
		pool.Close()
		os.Exit(1)
	}

	log.Info("all migrations processed", zap.Int("found", len(found)), zap.Int("applied", applied))
}
