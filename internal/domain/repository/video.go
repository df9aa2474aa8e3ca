package repository

import (
	"context"

	"github.com/hszk-dev/flixstream/internal/domain/model"
)

// VideoFilter narrows a listing.
type VideoFilter struct {
	FeaturedOnly bool
}

// VideoRepository defines the interface for video persistence operations.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type VideoRepository interface {
	// Create persists a new video and assigns its ID.
	Create(ctx context.Context, video *model.Video) error

	// GetByID retrieves a video by its identifier.
	// Returns nil and ErrVideoNotFound if the video does not exist.
	GetByID(ctx context.Context, id int64) (*model.Video, error)

	// List returns videos newest first. Returns an empty slice when none match.
	List(ctx context.Context, filter VideoFilter) ([]*model.Video, error)

	// Update persists changes to an existing video.
	// Returns ErrVideoNotFound if the video does not exist.
	Update(ctx context.Context, video *model.Video) error

	// Delete removes a video record.
	// Returns ErrVideoNotFound if the video does not exist.
	Delete(ctx context.Context, id int64) error
}
