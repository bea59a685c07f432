package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/indipaws/petstore-backend/api/routes"
	"github.com/indipaws/petstore-backend/internal/cart"
	"github.com/indipaws/petstore-backend/internal/catalog"
	"github.com/indipaws/petstore-backend/internal/notifications"
	"github.com/indipaws/petstore-backend/internal/orders"
	"github.com/indipaws/petstore-backend/internal/payments"
	"github.com/indipaws/petstore-backend/internal/promos"
	"github.com/indipaws/petstore-backend/internal/shipping"
	"github.com/indipaws/petstore-backend/pkg/config"
	"github.com/indipaws/petstore-backend/pkg/db"
	"github.com/indipaws/petstore-backend/pkg/logger"
	"github.com/indipaws/petstore-backend/pkg/metrics"
	"github.com/indipaws/petstore-backend/pkg/migrate"
	"github.com/indipaws/petstore-backend/pkg/redis"
	pkgstripe "github.com/indipaws/petstore-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	storefrontMetrics := metrics.NewStorefrontMetrics(prometheus.DefaultRegisterer)

	gormDB := dbClient.DB()
	catalogRepo := catalog.NewRepository(gormDB)
	stockLedger, err := catalog.NewLedger(gormDB)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock ledger", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(cartRepo, dbClient, catalogRepo, stockLedger, cfg.Cart)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	promoService, err := promos.NewService(promos.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create promo service", err)
		os.Exit(1)
	}

	shippingService, err := shipping.NewService(shipping.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping service", err)
		os.Exit(1)
	}

	notifyService, err := notifications.NewService(notifications.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	orchestrator, err := payments.NewOrchestrator(payments.NewStripeGateway(stripeClient), logg, cfg.Stripe.Currency)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment orchestrator", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.Deps{
		Repo:     orders.NewRepository(gormDB),
		CartRepo: cartRepo,
		Tx:       dbClient,
		Carts:    cartService,
		Stock:    stockLedger,
		Promos:   promoService,
		Shipping: shippingService,
		Payments: orchestrator,
		Notify:   notifyService,
		Products: catalogRepo,
		Metrics:  storefrontMetrics,
		Logger:   logg,
		Checkout: cfg.Checkout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	router := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		redisClient,
		redisClient,
		catalogRepo,
		cartService,
		shippingService,
		orderService,
		orchestrator,
	)

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}
