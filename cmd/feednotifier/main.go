package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"FeedNotifier/internal/app"
	"FeedNotifier/internal/config"
	"FeedNotifier/internal/logging"
	"FeedNotifier/internal/pipeline"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Once {
		report := application.RunOnce(ctx)
		if report.Status != pipeline.StatusSucceeded {
			os.Exit(1)
		}
		return
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
