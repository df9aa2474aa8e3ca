package usecase

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/hszk-dev/flixstream/internal/domain/repository"
)

func TestStorageCleaner_Cleanup(t *testing.T) {
	storage := newMockObjectStorage()
	storage.put("videos/a.mp4", []byte("a"), "video/mp4")
	storage.put("thumbnails/a.png", []byte("a"), "image/png")
	storage.deleteFn = func(ctx context.Context, key string) error {
		if key == "thumbnails/a.png" {
			return errors.New("access denied")
		}
		return nil
	}

	cleaner := NewStorageCleaner(storage)
	cleaner.Cleanup(context.Background(), CleanupReasonVideoDeleted, 1, "videos/a.mp4", "", "thumbnails/a.png")

	got := storage.deletedKeys()
	if !slices.Equal(got, []string{"videos/a.mp4", "thumbnails/a.png"}) {
		t.Errorf("deleted = %v, want both keys and no empty key", got)
	}
}

func TestStorageCleaner_IgnoresCallerCancellation(t *testing.T) {
	storage := newMockObjectStorage()
	var ctxErr error
	storage.deleteFn = func(ctx context.Context, key string) error {
		ctxErr = ctx.Err()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewStorageCleaner(storage).Cleanup(ctx, CleanupReasonWriteFailed, 0, "videos/a.mp4")

	if ctxErr != nil {
		t.Errorf("delete context error = %v, want nil", ctxErr)
	}
}

func TestQueueCleaner_Cleanup(t *testing.T) {
	tests := []struct {
		name          string
		keys          []string
		publishErr    error
		wantPublished int
		wantFallback  []string
	}{
		{
			name:          "publishes task",
			keys:          []string{"videos/a.mp4", "thumbnails/a.png"},
			wantPublished: 1,
		},
		{
			name:          "drops empty keys",
			keys:          []string{"", ""},
			wantPublished: 0,
		},
		{
			name:          "falls back when publish fails",
			keys:          []string{"videos/a.mp4", ""},
			publishErr:    errors.New("channel closed"),
			wantPublished: 1,
			wantFallback:  []string{"videos/a.mp4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &mockMessageQueue{
				publishCleanupTaskFn: func(ctx context.Context, task repository.CleanupTask) error {
					return tt.publishErr
				},
			}
			fallback := &recordingCleaner{}

			NewQueueCleaner(queue, fallback).Cleanup(context.Background(), CleanupReasonMediaReplaced, 7, tt.keys...)

			if len(queue.published) != tt.wantPublished {
				t.Fatalf("published = %d, want %d", len(queue.published), tt.wantPublished)
			}
			if tt.wantPublished > 0 {
				task := queue.published[0]
				if task.Reason != CleanupReasonMediaReplaced || task.VideoID != 7 || task.RetryCount != 0 {
					t.Errorf("task = %+v", task)
				}
				if slices.Contains(task.Keys, "") {
					t.Errorf("task keys contain an empty key: %v", task.Keys)
				}
			}
			if !slices.Equal(fallback.keys(), tt.wantFallback) {
				t.Errorf("fallback keys = %v, want %v", fallback.keys(), tt.wantFallback)
			}
		})
	}
}
