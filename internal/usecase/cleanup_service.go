package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hszk-dev/flixstream/internal/domain/repository"
	"github.com/hszk-dev/flixstream/internal/infrastructure/metrics"
)

const (
	// DefaultMaxRetries is the default number of redeliveries before a task is dropped.
	DefaultMaxRetries = 3
)

// CleanupServiceConfig holds configuration for CleanupService.
type CleanupServiceConfig struct {
	MaxRetries int
}

// DefaultCleanupServiceConfig returns the default configuration.
func DefaultCleanupServiceConfig() CleanupServiceConfig {
	return CleanupServiceConfig{MaxRetries: DefaultMaxRetries}
}

// CleanupService processes queued object cleanup tasks.
type CleanupService interface {
	// ProcessTask deletes the task's objects.
	// Returns nil on success or once the retry budget is spent.
	// Returns an error for failures that should be retried.
	ProcessTask(ctx context.Context, task repository.CleanupTask) error
}

type cleanupService struct {
	storage    repository.ObjectStorage
	maxRetries int
}

// NewCleanupService creates a new CleanupService instance.
func NewCleanupService(storage repository.ObjectStorage, cfg CleanupServiceConfig) CleanupService {
	return &cleanupService{
		storage:    storage,
		maxRetries: cfg.MaxRetries,
	}
}

func (s *cleanupService) ProcessTask(ctx context.Context, task repository.CleanupTask) error {
	if task.RetryCount >= s.maxRetries {
		slog.Error("giving up on object cleanup",
			"video_id", task.VideoID,
			"keys", task.Keys,
			"reason", task.Reason,
			"retry_count", task.RetryCount,
		)
		metrics.CleanupObjectsTotal.WithLabelValues(metrics.CleanupFailed).Add(float64(len(task.Keys)))
		return nil
	}

	var errs []error
	for _, key := range task.Keys {
		if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, repository.ErrObjectNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		metrics.CleanupObjectsTotal.WithLabelValues(metrics.CleanupDeleted).Inc()
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("object cleanup completed",
		"video_id", task.VideoID,
		"keys", len(task.Keys),
		"reason", task.Reason,
	)
	return nil
}
