package repository

import (
	"context"
)

// CleanupTask asks the worker to delete objects that are no longer referenced.
type CleanupTask struct {
	Keys       []string `json:"keys"`
	Reason     string   `json:"reason"`
	VideoID    int64    `json:"video_id,omitempty"`
	RetryCount int      `json:"retry_count"`
}

// MessageQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type MessageQueue interface {
	// PublishCleanupTask sends a cleanup task to the queue.
	PublishCleanupTask(ctx context.Context, task CleanupTask) error

	// ConsumeCleanupTasks blocks consuming tasks until ctx is cancelled.
	// The handler function is called for each received task.
	ConsumeCleanupTasks(ctx context.Context, handler func(task CleanupTask) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
