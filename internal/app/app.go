package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"FeedNotifier/internal/config"
	"FeedNotifier/internal/infrastructure/httpapi"
	"FeedNotifier/internal/infrastructure/llm"
	"FeedNotifier/internal/infrastructure/miniflux"
	"FeedNotifier/internal/infrastructure/scheduler"
	"FeedNotifier/internal/infrastructure/slack"
	"FeedNotifier/internal/infrastructure/storage"
	"FeedNotifier/internal/logging"
	"FeedNotifier/internal/pipeline"
	"FeedNotifier/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.FeedPipeline
	scheduler *usecase.Scheduler
	server    *http.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	slackClient, err := slack.NewAPIClient(slack.ClientConfig{Token: cfg.Slack.BotToken, APIURL: cfg.Slack.APIURL})
	if err != nil {
		return nil, fmt.Errorf("slack client: %w", err)
	}
	chat, err := llm.NewOpenAIClient(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}

	source := miniflux.NewSourceProvider(
		miniflux.NewClient(cfg.Miniflux.APIURL, cfg.Miniflux.APIKey, nil),
		storage.NewMemoryCursor(),
		miniflux.SourceOptions{
			InitialLookback: cfg.Miniflux.InitialLookback,
			PublishedWindow: cfg.Miniflux.PublishedWindow,
		},
		baseLogger.With("component", "source.miniflux"),
	)

	router := usecase.NewChannelRouter(slackClient, chat, usecase.RouterConfig{
		Tag:            cfg.Routing.Tag,
		Model:          cfg.OpenAI.Model,
		MaxPromptChars: cfg.Routing.MaxPromptChars,
	}, baseLogger.With("component", "stage.router"))

	commentary := usecase.NewCommentaryGenerator(chat, cfg.Commentary.Catalog, usecase.CommentaryConfig{
		Model:          cfg.OpenAI.Model,
		Language:       cfg.Commentary.Language,
		MaxComments:    cfg.Commentary.MaxComments,
		MaxPromptChars: cfg.Commentary.MaxPromptChars,
	}, baseLogger.With("component", "stage.commentary"))

	var alerter pipeline.Alerter
	if cfg.Slack.AlertChannel != "" {
		a, err := slack.NewAlerter(slackClient, cfg.Slack.AlertChannel, baseLogger.With("component", "alerter"))
		if err != nil {
			return nil, fmt.Errorf("slack alerter: %w", err)
		}
		alerter = a
	} else {
		baseLogger.Warn("SLACK_ALERT_CHANNEL is empty, run failures are only logged")
	}

	feed, err := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Router:     router,
		Commentary: commentary,
		Notifier:   slack.NewNotifier(slackClient, cfg.Slack.Location(), baseLogger.With("component", "notifier.slack")),
		Alerter:    alerter,
		Logger:     baseLogger.With("component", "pipeline"),
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval)
	sched := usecase.NewScheduler(driver, feed, baseLogger.With("component", "scheduler"))

	handler := httpapi.NewHandler(httpapi.Info{
		Version:  cfg.Version,
		Interval: driver.Interval(),
		Stages:   feed.Stages(),
	}, sched, source)
	server := httpapi.NewServer(cfg.HTTP.Addr(), httpapi.NewRouter(handler, baseLogger.With("component", "http")))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pipeline:  feed,
		scheduler: sched,
		server:    server,
	}, nil
}

// Run serves the status endpoint and runs the pipeline on schedule until ctx
// is cancelled, then drains both.
func (a *Application) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("status server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval, "stages", a.pipeline.Stages())

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("status server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("stop scheduler: %w", err))
	}
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("shutdown status server: %w", err))
	}
	a.logger.Info("application stopped")
	return runErr
}

// RunOnce executes a single pipeline pass outside the schedule.
func (a *Application) RunOnce(ctx context.Context) pipeline.Report {
	report, _ := a.scheduler.RunOnce(ctx, time.Now())
	return report
}
