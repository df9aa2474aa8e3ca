package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/hszk-dev/flixstream/internal/domain/model"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
)

var videoRowColumns = []string{
	"id", "title", "genre", "description", "duration", "year", "is_featured",
	"video_key", "thumbnail_key", "created_at", "updated_at",
}

func newVideo() *model.Video {
	now := time.Now()
	return &model.Video{
		Title:        "Harbor Lights",
		Genre:        "Documentary",
		Description:  "Night shift at the port.",
		Duration:     3720,
		Year:         2019,
		IsFeatured:   true,
		VideoKey:     "videos/harbor.mp4",
		ThumbnailKey: "thumbnails/harbor.jpg",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestVideoRepository_Create(t *testing.T) {
	tests := []struct {
		name    string
		mockFn  func(mock pgxmock.PgxPoolIface, video *model.Video)
		wantID  int64
		wantErr error
	}{
		{
			name: "successful creation assigns id",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectQuery("INSERT INTO videos").
					WithArgs(
						video.Title,
						video.Genre,
						video.Description,
						video.Duration,
						video.Year,
						video.IsFeatured,
						video.VideoKey,
						video.ThumbnailKey,
						pgxmock.AnyArg(),
						pgxmock.AnyArg(),
					).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(17)))
			},
			wantID: 17,
		},
		{
			name: "database error",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectQuery("INSERT INTO videos").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("failed to create video"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			video := newVideo()
			tt.mockFn(mock, video)

			repo := NewVideoRepository(mock)
			err = repo.Create(context.Background(), video)

			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("Create() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Create() unexpected error = %v", err)
			}
			if video.ID != tt.wantID {
				t.Errorf("video.ID = %d, want %d", video.ID, tt.wantID)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_GetByID(t *testing.T) {
	now := time.Now()
	description := "Night shift at the port."

	tests := []struct {
		name    string
		id      int64
		mockFn  func(mock pgxmock.PgxPoolIface)
		want    *model.Video
		wantErr error
	}{
		{
			name: "successful retrieval",
			id:   5,
			mockFn: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(videoRowColumns).AddRow(
					int64(5), "Harbor Lights", "Documentary", &description, 3720, 2019, true,
					"videos/harbor.mp4", "thumbnails/harbor.jpg", now, now,
				)
				mock.ExpectQuery("SELECT .* FROM videos WHERE id").
					WithArgs(int64(5)).
					WillReturnRows(rows)
			},
			want: &model.Video{
				ID:           5,
				Title:        "Harbor Lights",
				Genre:        "Documentary",
				Description:  description,
				Duration:     3720,
				Year:         2019,
				IsFeatured:   true,
				VideoKey:     "videos/harbor.mp4",
				ThumbnailKey: "thumbnails/harbor.jpg",
			},
		},
		{
			name: "null description",
			id:   6,
			mockFn: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(videoRowColumns).AddRow(
					int64(6), "Short", "Comedy", nil, 60, 2000, false,
					"videos/short.mp4", "thumbnails/short.png", now, now,
				)
				mock.ExpectQuery("SELECT .* FROM videos WHERE id").
					WithArgs(int64(6)).
					WillReturnRows(rows)
			},
			want: &model.Video{
				ID:           6,
				Title:        "Short",
				Genre:        "Comedy",
				Duration:     60,
				Year:         2000,
				VideoKey:     "videos/short.mp4",
				ThumbnailKey: "thumbnails/short.png",
			},
		},
		{
			name: "video not found",
			id:   404,
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT .* FROM videos WHERE id").
					WithArgs(int64(404)).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: repository.ErrVideoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			tt.mockFn(mock)

			repo := NewVideoRepository(mock)
			got, err := repo.GetByID(context.Background(), tt.id)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetByID() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("GetByID() unexpected error = %v", err)
			}

			if got.ID != tt.want.ID ||
				got.Title != tt.want.Title ||
				got.Genre != tt.want.Genre ||
				got.Description != tt.want.Description ||
				got.Duration != tt.want.Duration ||
				got.Year != tt.want.Year ||
				got.IsFeatured != tt.want.IsFeatured ||
				got.VideoKey != tt.want.VideoKey ||
				got.ThumbnailKey != tt.want.ThumbnailKey {
				t.Errorf("GetByID() = %+v, want %+v", got, tt.want)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_List(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		filter  repository.VideoFilter
		mockFn  func(mock pgxmock.PgxPoolIface)
		wantIDs []int64
		wantErr bool
	}{
		{
			name: "returns all videos newest first",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(videoRowColumns).
					AddRow(int64(2), "B", "Drama", nil, 100, 2020, false, "videos/b.mp4", "thumbnails/b.jpg", now, now).
					AddRow(int64(1), "A", "Drama", nil, 100, 2020, true, "videos/a.mp4", "thumbnails/a.jpg", now.Add(-time.Hour), now)
				mock.ExpectQuery("SELECT .* FROM videos ORDER BY created_at DESC").
					WillReturnRows(rows)
			},
			wantIDs: []int64{2, 1},
		},
		{
			name:   "featured filter",
			filter: repository.VideoFilter{FeaturedOnly: true},
			mockFn: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(videoRowColumns).
					AddRow(int64(1), "A", "Drama", nil, 100, 2020, true, "videos/a.mp4", "thumbnails/a.jpg", now, now)
				mock.ExpectQuery("SELECT .* FROM videos WHERE is_featured = TRUE ORDER BY").
					WillReturnRows(rows)
			},
			wantIDs: []int64{1},
		},
		{
			name: "returns empty slice when no videos",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT .* FROM videos").
					WillReturnRows(pgxmock.NewRows(videoRowColumns))
			},
			wantIDs: []int64{},
		},
		{
			name: "query error",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT .* FROM videos").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			tt.mockFn(mock)

			repo := NewVideoRepository(mock)
			got, err := repo.List(context.Background(), tt.filter)

			if (err != nil) != tt.wantErr {
				t.Fatalf("List() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if got == nil {
				t.Fatal("List() returned nil slice")
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("List() returned %d videos, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("List()[%d].ID = %d, want %d", i, got[i].ID, id)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_Update(t *testing.T) {
	tests := []struct {
		name    string
		mockFn  func(mock pgxmock.PgxPoolIface, video *model.Video)
		wantErr error
	}{
		{
			name: "successful update",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectExec("UPDATE videos").
					WithArgs(
						video.ID,
						video.Title,
						video.Genre,
						video.Description,
						video.Duration,
						video.Year,
						video.IsFeatured,
						video.VideoKey,
						video.ThumbnailKey,
						pgxmock.AnyArg(),
					).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "video not found",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectExec("UPDATE videos").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: repository.ErrVideoNotFound,
		},
		{
			name: "database error",
			mockFn: func(mock pgxmock.PgxPoolIface, video *model.Video) {
				mock.ExpectExec("UPDATE videos").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("failed to update video"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			video := newVideo()
			video.ID = 9
			tt.mockFn(mock, video)

			repo := NewVideoRepository(mock)
			err = repo.Update(context.Background(), video)

			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("Update() expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) && !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Errorf("Update() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Update() unexpected error = %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestVideoRepository_Delete(t *testing.T) {
	tests := []struct {
		name    string
		result  pgconn.CommandTag
		wantErr error
	}{
		{"successful delete", pgxmock.NewResult("DELETE", 1), nil},
		{"video not found", pgxmock.NewResult("DELETE", 0), repository.ErrVideoNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			mock.ExpectExec("DELETE FROM videos WHERE id").
				WithArgs(int64(3)).
				WillReturnResult(tt.result)

			repo := NewVideoRepository(mock)
			err = repo.Delete(context.Background(), 3)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}
