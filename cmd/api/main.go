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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tillpoint-backend/api/routes"
	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/internal/cartsession"
	"github.com/angelmondragon/tillpoint-backend/internal/checkout"
	"github.com/angelmondragon/tillpoint-backend/internal/customers"
	"github.com/angelmondragon/tillpoint-backend/internal/discounts"
	"github.com/angelmondragon/tillpoint-backend/internal/products"
	"github.com/angelmondragon/tillpoint-backend/internal/refunds"
	"github.com/angelmondragon/tillpoint-backend/internal/register"
	"github.com/angelmondragon/tillpoint-backend/internal/sales"
	"github.com/angelmondragon/tillpoint-backend/internal/settings"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/instance"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
	"github.com/angelmondragon/tillpoint-backend/pkg/migrate"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox"
	"github.com/angelmondragon/tillpoint-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	posMetrics := metrics.NewPOSMetrics(registry)

	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	cartRepo := cart.NewRepository(conn)
	discountRepo := discounts.NewRepository(conn)
	customerRepo := customers.NewRepository(conn)
	salesRepo := sales.NewRepository(conn)

	settingsService, err := settings.NewService(settings.NewRepository(conn), redisClient, cfg.Store, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	pricer := cart.NewPricer(discountRepo, customerRepo, time.Now)

	cartService, err := cart.NewService(cart.Deps{
		Carts:     cartRepo,
		Products:  products.NewRepository(conn),
		Discounts: discountRepo,
		Customers: customerRepo,
		Settings:  settingsService,
		Pricer:    pricer,
		Tx:        dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	sessionManager, err := cartsession.NewManager(cartRepo, pricer, settingsService, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart session manager", err)
		os.Exit(1)
	}

	registerService, err := register.NewService(register.Deps{
		Repo:           register.NewRepository(conn),
		Tx:             dbClient,
		Outbox:         emitter,
		Metrics:        posMetrics,
		Logger:         logg,
		ManagerPINHash: cfg.Store.ManagerPINHash,
		Now:            time.Now,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.Deps{
		Carts:     cartRepo,
		Sales:     salesRepo,
		Discounts: discountRepo,
		Pricer:    pricer,
		Settings:  settingsService,
		Ledger:    registerService,
		Tx:        dbClient,
		Outbox:    emitter,
		Metrics:   posMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	refundService, err := refunds.NewService(refunds.Deps{
		Refunds: refunds.NewRepository(conn),
		Sales:   salesRepo,
		Ledger:  registerService,
		Tx:      dbClient,
		Outbox:  emitter,
		Metrics: posMetrics,
		Logger:  logg,
		Now:     time.Now,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create refund service", err)
		os.Exit(1)
	}

	discountService, err := discounts.NewService(discountRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create discount service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			sessionManager,
			cartService,
			checkoutService,
			registerService,
			refundService,
			sales.NewService(salesRepo),
			discountService,
			settingsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	closeErr := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(ctx, "error during shutdown", closeErr)
		exitCode = 1
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
