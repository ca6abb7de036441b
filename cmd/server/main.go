package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	app "github.com/paintcoffee/pos-backend/internal/app"
	"github.com/paintcoffee/pos-backend/internal/app/auth"
	"github.com/paintcoffee/pos-backend/internal/app/httpapi"
	"github.com/paintcoffee/pos-backend/internal/app/storage/postgres"
	"github.com/paintcoffee/pos-backend/internal/config"
	"github.com/paintcoffee/pos-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("server").Fatalf("load config: %v", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}).WithField("component", "server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := app.Stores{}
	if cfg.Database.DSN != "" {
		store, err := postgres.Open(ctx, cfg.Database.DSN)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer store.DB().Close()
		stores = app.Stores{
			Menu:       store,
			Categories: store,
			Invoices:   store,
			Users:      store,
			Settings:   store,
			Counters:   store,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	opts := app.Options{RateSweepInterval: cfg.Scheduler.SweepInterval}
	if cfg.Redis.Addr != "" {
		opts.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer opts.Redis.Close()
		log.WithField("addr", cfg.Redis.Addr).Info("menu cache enabled")
	}

	application, err := app.New(stores, opts, log)
	if err != nil {
		log.Fatalf("build application: %v", err)
	}
	if err := application.Seed(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminPIN); err != nil {
		log.Fatalf("seed: %v", err)
	}
	if cfg.Seed.AdminPIN == "" {
		log.Warn("POS_ADMIN_PIN not set; no admin account seeded")
	}

	if err := application.Start(ctx); err != nil {
		log.Fatalf("start application: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	handler := httpapi.NewHandler(application, tokens)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown incomplete")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application shutdown incomplete")
	}
	log.Info("server stopped")
}
