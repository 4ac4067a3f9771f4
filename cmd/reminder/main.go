// Command reminder performs a single reminder firing and exits. It is meant to
// be started by an external scheduler in place of the API's in-process loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kter/serverless-sample/internal/app"
	"github.com/kter/serverless-sample/internal/config"
)

const firingTimeout = 5 * time.Minute

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("reminder failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.ValidateFiring(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, firingTimeout)
	defer cancel()

	store, closeStore, err := app.NewStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	pub, err := app.NewPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}

	scheduler, err := app.NewScheduler(cfg, store, pub, logger)
	if err != nil {
		return err
	}

	result := scheduler.Fire(ctx)
	if result.Err != nil {
		return fmt.Errorf("firing at %s: %w", result.At.Format(time.RFC3339), result.Err)
	}

	logger.Info("reminder firing complete",
		"eligible", result.Eligible,
		"published", result.Published,
	)
	return nil
}
