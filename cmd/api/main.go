package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/averyross/bookhaven-backend/api/controllers"
	"github.com/averyross/bookhaven-backend/api/routes"
	authsvc "github.com/averyross/bookhaven-backend/internal/auth"
	"github.com/averyross/bookhaven-backend/internal/cart"
	"github.com/averyross/bookhaven-backend/internal/catalog"
	checkoutsvc "github.com/averyross/bookhaven-backend/internal/checkout"
	"github.com/averyross/bookhaven-backend/internal/orders"
	"github.com/averyross/bookhaven-backend/internal/users"
	"github.com/averyross/bookhaven-backend/pkg/auth/session"
	"github.com/averyross/bookhaven-backend/pkg/config"
	"github.com/averyross/bookhaven-backend/pkg/db"
	"github.com/averyross/bookhaven-backend/pkg/firestore"
	"github.com/averyross/bookhaven-backend/pkg/logger"
	"github.com/averyross/bookhaven-backend/pkg/mailer"
	"github.com/averyross/bookhaven-backend/pkg/metrics"
	"github.com/averyross/bookhaven-backend/pkg/migrate"
	"github.com/averyross/bookhaven-backend/pkg/redis"
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

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	localClient, err := db.OpenSQLite(ctx, cfg.LocalStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local store", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	fsClient, err := firestore.New(ctx, cfg.Firestore, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap firestore", err)
		os.Exit(1)
	}

	closeAll := func() {
		var errs error
		errs = multierr.Append(errs, fsClient.Close())
		errs = multierr.Append(errs, redisClient.Close())
		errs = multierr.Append(errs, localClient.Close())
		errs = multierr.Append(errs, dbClient.Close())
		if errs != nil {
			logg.Error(ctx, "error closing dependencies", errs)
		}
	}
	defer closeAll()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	localStore, err := cart.NewLocalStore(localClient)
	if err != nil {
		logg.Error(ctx, "failed to create local cart store", err)
		os.Exit(1)
	}
	remoteStore, err := cart.NewRemoteStore(fsClient)
	if err != nil {
		logg.Error(ctx, "failed to create remote cart store", err)
		os.Exit(1)
	}

	cartMetrics := metrics.NewCartSyncMetrics(prometheus.DefaultRegisterer)

	registry, err := cart.NewRegistry(
		cart.Selector{Local: localStore, Remote: remoteStore},
		cartMetrics,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create cart registry", err)
		os.Exit(1)
	}

	mailClient, err := mailer.New(cfg.Sendgrid, logg)
	if err != nil {
		logg.Error(ctx, "failed to create mailer", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		DB:      dbClient,
		Carts:   registry,
		Mailer:  mailClient,
		Metrics: cartMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Redis:    redisClient,
		Sessions: sessionManager,
		Health: controllers.HealthDeps{
			DB:        dbClient,
			Redis:     redisClient,
			Firestore: fsClient,
		},
		Catalog:  catalogService,
		Auth:     authService,
		Carts:    registry,
		Checkout: checkoutService,
		Orders:   orders.NewRepository(dbClient.DB()),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			closeAll()
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(runCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
		}
	}
}
