package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/calliza/cardmart/internal/app"
	"github.com/calliza/cardmart/internal/clock"
	"github.com/calliza/cardmart/internal/config"
	"github.com/calliza/cardmart/internal/domain"
	"github.com/calliza/cardmart/internal/metrics"
	"github.com/calliza/cardmart/internal/notify"
	"github.com/calliza/cardmart/internal/storage/postgres"
	transporthttp "github.com/calliza/cardmart/internal/transport/http"
	"github.com/calliza/cardmart/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	clk := clock.NewSystem()

	var notifier notify.Notifier = notify.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = kafkaNotifier.Close() }()
		notifier = kafkaNotifier
		logger.Info("delivery notifications enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	reaperSvc := app.NewReaperService(
		postgres.NewReaperRepository(pool), clk, logger, m,
		app.WithPendingTTL(cfg.PendingTTL),
	)
	checkoutSvc := app.NewCheckoutService(
		postgres.NewCheckoutRepository(pool), reaperSvc, cfg.Gateway, clk, logger, m,
		app.WithHoldTTL(cfg.HoldTTL),
	)
	settlementSvc := app.NewSettlementService(
		postgres.NewSettlementRepository(pool), cfg.Gateway.Secret, notifier, clk, logger, m,
		app.WithSettlementHoldTTL(cfg.HoldTTL),
	)
	orderSvc := app.NewOrderService(postgres.NewOrderRepository(pool))
	adminSvc := app.NewAdminService(postgres.NewAdminRepository(pool), clk)

	handler := transporthttp.NewRouter(transporthttp.Services{
		Checkout: checkoutSvc,
		Settle:   settlementSvc,
		Orders:   orderSvc,
		Admin:    adminSvc,
		Reaper:   reaperSvc,
	}, registry, cfg.CORSOrigins, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runReaper(stopCtx, reaperSvc, cfg.ReapInterval, logger)

	logger.Info("api listening", zap.String("port", cfg.Port))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

// runReaper sweeps stale pending orders on a schedule. Checkout also sweeps
// opportunistically, so this only bounds how long a hold outlives its order.
func runReaper(ctx context.Context, reaper *app.ReaperService, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reaper.Reap(ctx, domain.ReapFilter{}); err != nil {
				logger.Warn("scheduled reap failed", zap.Error(err))
			}
		}
	}
}
