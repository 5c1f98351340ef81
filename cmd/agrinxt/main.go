package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/agrinxt/agrinxt/internal/app"
	"github.com/agrinxt/agrinxt/internal/catalog"
	"github.com/agrinxt/agrinxt/internal/collection"
	"github.com/agrinxt/agrinxt/internal/invoicing"
	"github.com/agrinxt/agrinxt/internal/payments"
	"github.com/agrinxt/agrinxt/internal/platform/cache"
	"github.com/agrinxt/agrinxt/internal/platform/db"
	"github.com/agrinxt/agrinxt/internal/profit"
	"github.com/agrinxt/agrinxt/internal/shared"
	"github.com/agrinxt/agrinxt/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	locker := shared.NewRedisLocker(redisClient, cfg.SettlementLockTTL)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewSettlementNotifier(jobsClient)

	reportCache := profit.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("report cache subscribe", slog.Any("error", err))
	}

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, reportCache, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	collectionRepo := collection.NewRepository(dbpool)
	collectionService := collection.NewService(collectionRepo, reportCache, logger)
	collectionHandler := collection.NewHandler(logger, collectionService)

	invoicingRepo := invoicing.NewRepository(dbpool)
	invoicingService := invoicing.NewService(invoicingRepo, locker, notifier, reportCache, logger)
	invoicingHandler := invoicing.NewHandler(logger, invoicingService)

	paymentsRepo := payments.NewRepository(dbpool)
	paymentsService := payments.NewService(paymentsRepo, locker, notifier, logger)
	paymentsHandler := payments.NewHandler(logger, paymentsService)

	profitRepo := profit.NewRepository(dbpool)
	profitService := profit.NewService(profitRepo, reportCache)
	profitHandler := profit.NewHandler(logger, profitService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CatalogHandler:    catalogHandler,
		CollectionHandler: collectionHandler,
		InvoicingHandler:  invoicingHandler,
		PaymentsHandler:   paymentsHandler,
		ProfitHandler:     profitHandler,
		JobHandler:        jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
