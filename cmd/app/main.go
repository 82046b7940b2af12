package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"sales-backoffice/internal/adapters/cli"
	"sales-backoffice/internal/app"
	"sales-backoffice/internal/cache"
	"sales-backoffice/internal/config"
	"sales-backoffice/internal/core"
	"sales-backoffice/internal/db"
	"sales-backoffice/internal/events"
	"sales-backoffice/internal/logger"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}

	// Human output goes to stdout; structured logs stay quiet unless LOG_LEVEL asks otherwise.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	baseLogger := logger.Must(logger.New(level))
	defer func() { _ = baseLogger.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		baseLogger.Error("unable to connect to database", zap.Error(err))
		return 1
	}
	defer pool.Close()

	// Stock edits made here must still drop the server's cached listing and reach event consumers.
	var invalidator core.ProductCache
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			baseLogger.Warn("redis unavailable, product cache will not be invalidated", zap.Error(err))
		} else {
			defer client.Close()
			invalidator = cache.NewProductCache(client, cfg.Redis.ProductTTL, logger.Named(baseLogger, "cache.products"))
		}
	}

	var publisher core.EventPublisher
	if cfg.AMQP.URL != "" {
		conn, ch, err := events.SetupConn(ctx, cfg.AMQP.URL, cfg.AMQP.Exchange, logger.Named(baseLogger, "events.amqp"))
		if err != nil {
			baseLogger.Warn("rabbitmq unavailable, order events will not be published", zap.Error(err))
		} else {
			defer conn.Close()
			defer ch.Close()
			publisher = events.NewPublisher(ch, cfg.AMQP.Exchange)
		}
	}

	ledger := core.NewStockLedger(pool, invalidator, publisher, logger.Named(baseLogger, "svc.stock"))
	orders := core.NewSaleOrderService(pool, ledger, invalidator, publisher, logger.Named(baseLogger, "svc.orders"))
	svc := app.NewAppService(pool, ledger, orders, logger.Named(baseLogger, "app"))

	if err := cli.Run(ctx, svc, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
