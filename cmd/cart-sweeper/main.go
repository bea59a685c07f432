package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/indipaws/petstore-backend/internal/cart"
	"github.com/indipaws/petstore-backend/internal/catalog"
	"github.com/indipaws/petstore-backend/internal/cron"
	"github.com/indipaws/petstore-backend/pkg/config"
	"github.com/indipaws/petstore-backend/pkg/db"
	"github.com/indipaws/petstore-backend/pkg/logger"
	"github.com/indipaws/petstore-backend/pkg/metrics"
	"github.com/indipaws/petstore-backend/pkg/migrate"
	"github.com/indipaws/petstore-backend/pkg/redis"
)

const lockNameFormat = "cart-sweeper:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cart-sweeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cart-sweeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	stockLedger, err := catalog.NewLedger(gormDB)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock ledger", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cart.NewRepository(gormDB), dbClient, catalog.NewRepository(gormDB), stockLedger, cfg.Cart)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	storefrontMetrics := metrics.NewStorefrontMetrics(prometheus.DefaultRegisterer)
	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	sweepJob, err := cron.NewCartSweepJob(cron.CartSweepJobParams{
		Logger:  logg,
		Carts:   cartService,
		Metrics: storefrontMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart sweep job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockName(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweeper lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cart.SweepEvery,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweeper service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cart sweeper")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cart sweeper stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cart sweeper shut down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockNameFormat, env)
}
