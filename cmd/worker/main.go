package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/souq-b2b/souq-b2b/internal/app"
	"github.com/souq-b2b/souq-b2b/internal/cart"
	"github.com/souq-b2b/souq-b2b/internal/integrations/inventory"
	"github.com/souq-b2b/souq-b2b/internal/platform/cache"
	"github.com/souq-b2b/souq-b2b/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	inventoryClient := inventory.NewClient(cfg.InventoryAPIURL, cfg.GatewayToken, cfg.GatewayTimeout)
	store := cart.NewRedisStore(redisClient, cfg.CartTTL)
	consolidator := cart.NewConsolidator(inventoryClient, logger)
	pricing := cart.PricingConfig{
		DeliveryThreshold: cfg.DeliveryThresholdAmount(),
		DeliveryFee:       cfg.DeliveryFeeAmount(),
	}
	cartService := cart.NewService(store, consolidator, inventoryClient, pricing, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	refreshJob := jobs.NewStockRefreshJob(cartService, store, client, logger)

	sweepTask, err := jobs.NewStockSweepTask(time.Now().UTC())
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCartStockRefresh, Handler: refreshJob.HandleRefresh},
			{Type: jobs.TaskCartStockSweep, Handler: refreshJob.HandleSweep},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: sweepTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
