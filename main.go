package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"newswatch/config"
	"newswatch/driver"
	"newswatch/events"
	"newswatch/handler"
	"newswatch/logger"
	"newswatch/middleware"
	"newswatch/repository"
	"newswatch/retry"
	"newswatch/service"
)

func main() {
	// Missing .env is fine; the environment may be set by the orchestrator.
	_ = godotenv.Load()

	log := logger.Init()

	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := driver.Init(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database pool: %w", err)
	}
	defer dbPool.Close()

	notificationQueue, err := driver.NewNotificationQueue(cfg.Queue, log)
	if err != nil {
		return fmt.Errorf("failed to initialize notification queue: %w", err)
	}
	defer func() {
		if err := notificationQueue.Close(); err != nil {
			log.Error("failed to close notification queue", "error", err)
		}
	}()

	articleRepo := repository.NewArticleRepository(dbPool, log)
	alertRepo := repository.NewAlertRepository(dbPool, log)
	storylineRepo := repository.NewStorylineRepository(dbPool, log)
	dispatchRepo := repository.NewDispatchRepository(dbPool, log)

	publisher := events.NewPublisher(16, log)
	llmClient := driver.NewLLMClient(cfg.Classifier, log)

	retryConfig := retry.Config{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		MaxDelay:      cfg.Retry.MaxDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		JitterFactor:  cfg.Retry.JitterFactor,
	}

	alertMatcher := service.NewAlertMatcherService(alertRepo, dispatchRepo, notificationQueue, log)
	classifier := service.NewClassifierService(articleRepo, llmClient, alertMatcher, publisher, retryConfig, log)

	workerPool := service.NewClassifyWorkerPool(classifier, cfg.Classifier.Workers, cfg.Classifier.QueueSize, log)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	collector := service.NewFeedCollectorService(
		cfg.Collector,
		driver.NewFeedFetcher(cfg.Collector),
		articleRepo,
		workerPool,
		publisher,
		log,
	)
	clusterer := service.NewStorylineClustererService(cfg.Clusterer, articleRepo, storylineRepo, llmClient, log)

	scheduler := handler.NewJobScheduler(log)
	defer scheduler.StopAll()

	err = scheduler.Schedule(ctx, handler.JobFeedCollection, cfg.Collector.Interval, func(jobCtx context.Context) error {
		collector.CollectAll(jobCtx)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to schedule collection job: %w", err)
	}

	err = scheduler.Schedule(ctx, handler.JobStorylineClustering, cfg.Clusterer.Interval, func(jobCtx context.Context) error {
		runCtx, cancel := context.WithTimeout(jobCtx, cfg.Clusterer.Timeout)
		defer cancel()
		_, err := clusterer.ClusterOnce(runCtx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to schedule clustering job: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(log))

	httpHandler := handler.NewHTTPHandler(scheduler, publisher, dbPool, log)
	httpHandler.RegisterRoutes(e)

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		serverErr <- e.Start(fmt.Sprintf(":%d", cfg.Server.Port))
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	log.Info("shutdown complete")

	return nil
}
