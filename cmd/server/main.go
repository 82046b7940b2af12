package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	webAdapter "sales-backoffice/internal/adapters/web"
	"sales-backoffice/internal/app"
	"sales-backoffice/internal/cache"
	"sales-backoffice/internal/config"
	"sales-backoffice/internal/core"
	"sales-backoffice/internal/db"
	"sales-backoffice/internal/events"
	"sales-backoffice/internal/logger"
	"sales-backoffice/internal/scheduler"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		baseLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// Both the product cache and the event bus are optional.
	var productCache *cache.ProductCache
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			baseLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		productCache = cache.NewProductCache(client, cfg.Redis.ProductTTL, logger.Named(baseLogger, "cache.products"))
		baseLogger.Info("product cache enabled", zap.Duration("ttl", cfg.Redis.ProductTTL))
	} else {
		baseLogger.Warn("REDIS_URL not set, product cache disabled")
	}

	var publisher core.EventPublisher
	if cfg.AMQP.URL != "" {
		conn, ch, err := events.SetupConn(ctx, cfg.AMQP.URL, cfg.AMQP.Exchange, logger.Named(baseLogger, "events.amqp"))
		if err != nil {
			baseLogger.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer conn.Close()
		defer ch.Close()
		publisher = events.NewPublisher(ch, cfg.AMQP.Exchange)
		baseLogger.Info("order events enabled", zap.String("exchange", cfg.AMQP.Exchange))
	} else {
		baseLogger.Warn("AMQP_URL not set, order events disabled")
	}

	// A nil *cache.ProductCache must not reach core as a non-nil interface.
	var invalidator core.ProductCache
	if productCache != nil {
		invalidator = productCache
	}

	ledger := core.NewStockLedger(pool, invalidator, publisher, logger.Named(baseLogger, "svc.stock"))
	orders := core.NewSaleOrderService(pool, ledger, invalidator, publisher, logger.Named(baseLogger, "svc.orders"))

	var reads core.StockLedger = ledger
	if productCache != nil {
		reads = cache.NewCachedLedger(ledger, productCache)
	}

	svc := app.NewAppService(pool, reads, orders, logger.Named(baseLogger, "app"))
	handler := webAdapter.NewHandler(svc, cfg.Server.AllowedOrigins, logger.Named(baseLogger, "http"))

	sched := scheduler.NewScheduler(cfg.Idempotency, orders, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
