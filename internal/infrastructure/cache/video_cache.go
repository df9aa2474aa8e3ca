package cache

import (
	"context"
	"time"

	"github.com/hszk-dev/flixstream/internal/domain/model"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
)

// VideoCache defines the interface for caching video metadata.
// Implementations should handle serialization/deserialization transparently.
type VideoCache interface {
	// Get retrieves a video from cache by ID.
	// Returns nil, nil if the video is not found in cache (cache miss).
	Get(ctx context.Context, videoID int64) (*model.Video, error)

	// Set stores a video in cache with the specified TTL.
	Set(ctx context.Context, video *model.Video, ttl time.Duration) error

	// Delete removes a video from cache by ID.
	// Returns nil if the video was not in cache.
	Delete(ctx context.Context, videoID int64) error

	// GetList retrieves a cached listing. The boolean is false on a miss,
	// which keeps a cached empty catalog distinguishable from no entry.
	GetList(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, bool, error)

	// SetList stores a listing under the key derived from filter.
	SetList(ctx context.Context, filter repository.VideoFilter, videos []*model.Video, ttl time.Duration) error

	// DeleteLists drops every cached listing.
	DeleteLists(ctx context.Context) error
}
