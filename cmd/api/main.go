package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kter/serverless-sample/internal/app"
	"github.com/kter/serverless-sample/internal/config"
	todohttp "github.com/kter/serverless-sample/internal/http"
	"github.com/kter/serverless-sample/internal/metrics"
	"github.com/kter/serverless-sample/internal/reminder"
	"github.com/kter/serverless-sample/internal/service"
)

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"store", cfg.StoreBackend,
		"notify", cfg.Notify.Backend,
		"reminder_enabled", cfg.Reminder.Enabled,
		"log_level", cfg.LogLevel,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.NewStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	todoSvc := service.NewTodoService(store)

	deps := todohttp.ServerDeps{
		RouterDeps: todohttp.RouterDeps{Gatherer: registry},
		Requests:   m,
	}

	var wg sync.WaitGroup
	if cfg.Reminder.Enabled {
		pub, err := app.NewPublisher(ctx, cfg, logger)
		if err != nil {
			return err
		}
		scheduler, err := app.NewScheduler(cfg, store, pub, logger, reminder.WithObserver(m))
		if err != nil {
			return err
		}
		deps.ReminderState = func() string { return string(scheduler.State()) }

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := scheduler.Run(ctx); err != nil {
				logger.Error("reminder scheduler failed", "error", err)
				stop()
			}
		}()
	} else {
		logger.Warn("reminder scheduler disabled: REMINDER_ENABLED=false")
	}

	srv := todohttp.NewServer(cfg.ServerPort, logger, todoSvc, deps)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	logger.Info("server starting", "port", cfg.ServerPort)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	wg.Wait()

	logger.Info("server stopped gracefully")
	return nil
}
