package repository

import (
	"context"
	"io"
	"time"

	"github.com/hszk-dev/flixstream/internal/domain/model"
)

// ObjectStorage defines the interface for object storage operations.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
type ObjectStorage interface {
	// GeneratePresignedUploadURL creates a presigned URL for direct client upload.
	GeneratePresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a presigned URL for downloading an object.
	GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Upload stores an object. size may be -1 when unknown.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Stat returns size and declared content type without transferring the body.
	// Returns ErrObjectNotFound if the object does not exist.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// Open fetches the object body, restricted to rng when it is non-nil.
	// Returns ErrObjectNotFound if the object does not exist.
	// Caller is responsible for closing the returned Object.
	Open(ctx context.Context, key string, rng *model.ByteRange) (*Object, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists in the storage.
	Exists(ctx context.Context, key string) (bool, error)
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Object is an open object body together with its metadata.
// For ranged reads Info.Size is the length of the returned span.
type Object struct {
	io.ReadCloser
	Info ObjectInfo
}
