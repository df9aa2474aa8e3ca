package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hszk-dev/flixstream/internal/validation"
)

// Video represents a catalog entry and the storage keys of its media.
type Video struct {
	ID           int64
	Title        string
	Genre        string
	Description  string
	Duration     int // seconds
	Year         int
	IsFeatured   bool
	VideoKey     string
	ThumbnailKey string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	ErrMissingVideoKey     = errors.New("video key cannot be empty")
	ErrMissingThumbnailKey = errors.New("thumbnail key cannot be empty")
)

// VideoDraft holds the descriptive fields of a video before it is persisted.
type VideoDraft struct {
	Title       string `json:"title" validate:"required,max=255"`
	Genre       string `json:"genre" validate:"required,max=100"`
	Description string `json:"description" validate:"max=5000"`
	Duration    int    `json:"duration" validate:"min=1"`
	Year        int    `json:"year" validate:"min=1900,max=2030"`
	IsFeatured  bool   `json:"is_featured"`
}

// VideoPatch carries a partial update. Nil fields are left untouched.
type VideoPatch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Genre       *string `json:"genre" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Duration    *int    `json:"duration" validate:"omitempty,min=1"`
	Year        *int    `json:"year" validate:"omitempty,min=1900,max=2030"`
	IsFeatured  *bool   `json:"is_featured"`
}

// IsEmpty reports whether the patch changes nothing.
func (p VideoPatch) IsEmpty() bool {
	return p.Title == nil && p.Genre == nil && p.Description == nil &&
		p.Duration == nil && p.Year == nil && p.IsFeatured == nil
}

// Normalize trims the text fields and validates the draft.
func (d *VideoDraft) Normalize() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Genre = strings.TrimSpace(d.Genre)
	d.Description = strings.TrimSpace(d.Description)
	return validation.Struct(d)
}

// NewVideo validates the draft and returns an unsaved Video pointing at the given keys.
func NewVideo(draft VideoDraft, videoKey, thumbnailKey string) (*Video, error) {
	if err := draft.Normalize(); err != nil {
		return nil, err
	}
	if videoKey == "" {
		return nil, ErrMissingVideoKey
	}
	if thumbnailKey == "" {
		return nil, ErrMissingThumbnailKey
	}

	now := time.Now()
	return &Video{
		Title:        draft.Title,
		Genre:        draft.Genre,
		Description:  draft.Description,
		Duration:     draft.Duration,
		Year:         draft.Year,
		IsFeatured:   draft.IsFeatured,
		VideoKey:     videoKey,
		ThumbnailKey: thumbnailKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Apply validates the patch and copies its set fields onto v.
// v is not modified when validation fails.
func (v *Video) Apply(patch VideoPatch) error {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		t := strings.TrimSpace(*s)
		return &t
	}
	patch.Title = trim(patch.Title)
	patch.Genre = trim(patch.Genre)
	patch.Description = trim(patch.Description)

	// Blank text is reported as missing rather than too short.
	if patch.Title != nil && *patch.Title == "" {
		return validation.Field("title", "required", "title is required")
	}
	if patch.Genre != nil && *patch.Genre == "" {
		return validation.Field("genre", "required", "genre is required")
	}
	if err := validation.Struct(&patch); err != nil {
		return err
	}

	if patch.Title != nil {
		v.Title = *patch.Title
	}
	if patch.Genre != nil {
		v.Genre = *patch.Genre
	}
	if patch.Description != nil {
		v.Description = *patch.Description
	}
	if patch.Duration != nil {
		v.Duration = *patch.Duration
	}
	if patch.Year != nil {
		v.Year = *patch.Year
	}
	if patch.IsFeatured != nil {
		v.IsFeatured = *patch.IsFeatured
	}
	v.UpdatedAt = time.Now()
	return nil
}

// ReplaceVideoKey points the video at a new video object and returns the old key.
func (v *Video) ReplaceVideoKey(key string) string {
	old := v.VideoKey
	v.VideoKey = key
	v.UpdatedAt = time.Now()
	return old
}

// ReplaceThumbnailKey points the video at a new thumbnail object and returns the old key.
func (v *Video) ReplaceThumbnailKey(key string) string {
	old := v.ThumbnailKey
	v.ThumbnailKey = key
	v.UpdatedAt = time.Now()
	return old
}

// DurationMinutes returns the duration in minutes rounded to one decimal.
func (v *Video) DurationMinutes() float64 {
	return math.Round(float64(v.Duration)/60*10) / 10
}

// DurationFormatted renders the duration as H:MM:SS, or MM:SS under an hour.
func (v *Video) DurationFormatted() string {
	hours := v.Duration / 3600
	minutes := (v.Duration % 3600) / 60
	seconds := v.Duration % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
