package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/putrawicaksono/minibank/internal/bank"
	"github.com/putrawicaksono/minibank/internal/config"
	"github.com/putrawicaksono/minibank/internal/server"
	"github.com/putrawicaksono/minibank/internal/storage/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found; relying on existing environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger := newLogger(cfg)

	ctx := context.Background()
	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("init database: %v", err)
	}
	defer store.Close()

	reconciler := bank.NewReconciler(store, store, logger)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReconcileSchedule, func() {
		if _, err := reconciler.Run(context.Background()); err != nil {
			logger.WithError(err).Error("reconciliation run failed")
		}
	}); err != nil {
		logger.Fatalf("schedule reconciler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(cfg, server.Deps{
		Accounts: store,
		Users:    store,
		Ledger:   store,
		Log:      logger,
	})

	go func() {
		logger.Infof("minibank listening on %s", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("graceful shutdown error: %v", err)
	}
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
