package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hszk-dev/flixstream/internal/domain/model"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
	"github.com/hszk-dev/flixstream/internal/infrastructure/metrics"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const videoColumns = `id, title, genre, description, duration, year, is_featured, video_key, thumbnail_key, created_at, updated_at`

// VideoRepository implements repository.VideoRepository using PostgreSQL.
type VideoRepository struct {
	db DBTX
}

// NewVideoRepository creates a new VideoRepository instance.
func NewVideoRepository(db DBTX) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts the video and stores the generated ID on it.
func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	const query = `
		INSERT INTO videos (title, genre, description, duration, year, is_featured, video_key, thumbnail_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryInsert, metrics.TableVideos).Inc()

	err := r.db.QueryRow(ctx, query,
		video.Title,
		video.Genre,
		video.Description,
		video.Duration,
		video.Year,
		video.IsFeatured,
		video.VideoKey,
		video.ThumbnailKey,
		video.CreatedAt,
		video.UpdatedAt,
	).Scan(&video.ID)
	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetByID retrieves a video by its identifier.
func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*model.Video, error) {
	const query = `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, metrics.TableVideos).Inc()

	video, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID: %w", err)
	}

	return video, nil
}

// List returns videos newest first, optionally only featured ones.
func (r *VideoRepository) List(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos`
	if filter.FeaturedOnly {
		query += ` WHERE is_featured = TRUE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, metrics.TableVideos).Inc()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]*model.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating videos: %w", err)
	}

	return videos, nil
}

// Update persists changes to an existing video entity.
func (r *VideoRepository) Update(ctx context.Context, video *model.Video) error {
	const query = `
		UPDATE videos
		SET title = $2, genre = $3, description = $4, duration = $5, year = $6,
		    is_featured = $7, video_key = $8, thumbnail_key = $9, updated_at = $10
		WHERE id = $1
	`

	video.UpdatedAt = time.Now()

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryUpdate, metrics.TableVideos).Inc()

	tag, err := r.db.Exec(ctx, query,
		video.ID,
		video.Title,
		video.Genre,
		video.Description,
		video.Duration,
		video.Year,
		video.IsFeatured,
		video.VideoKey,
		video.ThumbnailKey,
		video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

// Delete removes a video record.
func (r *VideoRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM videos WHERE id = $1`

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryDelete, metrics.TableVideos).Inc()

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

// scanVideo scans a single row into a Video model.
// pgx.Rows satisfies pgx.Row, so this serves both QueryRow and Query.
func scanVideo(row pgx.Row) (*model.Video, error) {
	var (
		video       model.Video
		description *string
	)

	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.Genre,
		&description,
		&video.Duration,
		&video.Year,
		&video.IsFeatured,
		&video.VideoKey,
		&video.ThumbnailKey,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		video.Description = *description
	}

	return &video, nil
}

// Compile-time verification that VideoRepository implements repository.VideoRepository.
var _ repository.VideoRepository = (*VideoRepository)(nil)
