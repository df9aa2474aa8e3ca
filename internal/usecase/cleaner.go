package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/hszk-dev/flixstream/internal/domain/repository"
	"github.com/hszk-dev/flixstream/internal/infrastructure/metrics"
)

// Cleanup reasons recorded on tasks and log lines.
const (
	CleanupReasonVideoDeleted  = "video_deleted"
	CleanupReasonMediaReplaced = "media_replaced"
	CleanupReasonWriteFailed   = "write_failed"
)

// ObjectCleaner removes objects that are no longer referenced by any record.
// Cleanup is best-effort: failures are logged and never reach the caller.
type ObjectCleaner interface {
	Cleanup(ctx context.Context, reason string, videoID int64, keys ...string)
}

type storageCleaner struct {
	storage repository.ObjectStorage
	timeout time.Duration
}

// NewStorageCleaner deletes objects inline.
func NewStorageCleaner(storage repository.ObjectStorage) ObjectCleaner {
	return &storageCleaner{storage: storage, timeout: 30 * time.Second}
}

func (c *storageCleaner) Cleanup(ctx context.Context, reason string, videoID int64, keys ...string) {
	// The primary operation may already be answering; its context must not
	// abort the deletes.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := c.storage.Delete(ctx, key); err != nil {
			metrics.CleanupObjectsTotal.WithLabelValues(metrics.CleanupFailed).Inc()
			slog.Warn("best-effort object cleanup failed",
				"video_id", videoID,
				"key", key,
				"reason", reason,
				"error", err,
			)
			continue
		}
		metrics.CleanupObjectsTotal.WithLabelValues(metrics.CleanupDeleted).Inc()
	}
}

type queueCleaner struct {
	queue    repository.MessageQueue
	fallback ObjectCleaner
}

// NewQueueCleaner hands deletions to the cleanup worker, deleting inline
// through fallback when the task cannot be published.
func NewQueueCleaner(queue repository.MessageQueue, fallback ObjectCleaner) ObjectCleaner {
	return &queueCleaner{queue: queue, fallback: fallback}
}

func (c *queueCleaner) Cleanup(ctx context.Context, reason string, videoID int64, keys ...string) {
	keys = nonEmpty(keys)
	if len(keys) == 0 {
		return
	}

	task := repository.CleanupTask{Keys: keys, Reason: reason, VideoID: videoID}
	if err := c.queue.PublishCleanupTask(context.WithoutCancel(ctx), task); err != nil {
		slog.Warn("failed to queue object cleanup, deleting inline",
			"video_id", videoID,
			"keys", keys,
			"error", err,
		)
		c.fallback.Cleanup(ctx, reason, videoID, keys...)
		return
	}
	metrics.CleanupObjectsTotal.WithLabelValues(metrics.CleanupQueued).Add(float64(len(keys)))
}

func nonEmpty(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
