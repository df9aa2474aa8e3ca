package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hszk-dev/flixstream/internal/config"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
	"github.com/hszk-dev/flixstream/internal/infrastructure/queue"
	"github.com/hszk-dev/flixstream/internal/infrastructure/storage"
	"github.com/hszk-dev/flixstream/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		Region:    cfg.MinIO.Region,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO")

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	cleanupSvc := usecase.NewCleanupService(storageClient, usecase.CleanupServiceConfig{
		MaxRetries: cfg.Worker.MaxRetries,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var inFlight sync.WaitGroup
	handle := taskHandler(ctx, logger, cleanupSvc, &inFlight)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("consuming cleanup tasks", slog.Int("max_retries", cfg.Worker.MaxRetries))
		if err := queueClient.ConsumeCleanupTasks(ctx, handle); err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	// Stop taking new deliveries, then drain.
	cancel()
	if drained(&inFlight, cfg.Worker.ShutdownTimeout) {
		logger.Info("all in-flight tasks completed")
	} else {
		logger.Warn("shutdown timeout exceeded, some tasks may not have completed")
	}

	logger.Info("worker stopped")
	return nil
}

// taskHandler runs one cleanup task per delivery. Deletions run to completion
// even when shutdown starts mid-task.
func taskHandler(ctx context.Context, logger *slog.Logger, svc usecase.CleanupService, inFlight *sync.WaitGroup) func(repository.CleanupTask) error {
	return func(task repository.CleanupTask) error {
		inFlight.Add(1)
		defer inFlight.Done()

		log := logger.With(
			slog.Int64("video_id", task.VideoID),
			slog.String("reason", task.Reason),
			slog.Int("retry_count", task.RetryCount),
		)
		log.Debug("processing cleanup task", slog.Int("keys", len(task.Keys)))

		if err := svc.ProcessTask(context.WithoutCancel(ctx), task); err != nil {
			log.Error("cleanup task failed", slog.String("error", err.Error()))
			return err
		}
		log.Info("cleanup task completed", slog.Int("keys", len(task.Keys)))
		return nil
	}
}

// drained waits for wg up to timeout and reports whether it emptied.
func drained(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
