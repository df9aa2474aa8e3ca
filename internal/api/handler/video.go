package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hszk-dev/flixstream/internal/domain/model"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
	"github.com/hszk-dev/flixstream/internal/usecase"
	"github.com/hszk-dev/flixstream/internal/validation"
)

// Request/Response types

// CreateVideoRequest is the JSON form of a create request. Media must already
// be uploaded through presigned URLs; direct uploads use multipart/form-data.
type CreateVideoRequest struct {
	Title        string       `json:"title"`
	Genre        string       `json:"genre"`
	Description  string       `json:"description"`
	Duration     int          `json:"duration"`
	Year         int          `json:"year"`
	IsFeatured   featuredFlag `json:"is_featured"`
	VideoKey     string       `json:"video_key"`
	ThumbnailKey string       `json:"thumbnail_key"`
}

// UpdateVideoRequest is the JSON form of a partial update.
type UpdateVideoRequest struct {
	Title        *string       `json:"title"`
	Genre        *string       `json:"genre"`
	Description  *string       `json:"description"`
	Duration     *int          `json:"duration"`
	Year         *int          `json:"year"`
	IsFeatured   *featuredFlag `json:"is_featured"`
	VideoKey     string        `json:"video_key"`
	ThumbnailKey string        `json:"thumbnail_key"`
}

type PrepareUploadRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=video thumbnail"`
	FileName string `json:"file_name" validate:"required,max=255"`
}

type PrepareUploadResponse struct {
	Kind      string `json:"kind"`
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
	ExpiresAt string `json:"expires_at"`
}

type DownloadResponse struct {
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	ExpiresAt    string `json:"expires_at"`
}

type VideoResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Genre        string `json:"genre"`
	Description  string `json:"description,omitempty"`
	Duration     int    `json:"duration"`
	Year         int    `json:"year"`
	IsFeatured   bool   `json:"is_featured"`
	VideoKey     string `json:"video_key"`
	ThumbnailKey string `json:"thumbnail_key"`
	StreamURL    string `json:"stream_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type VideoInfoResponse struct {
	VideoResponse
	DurationMinutes   float64 `json:"duration_minutes"`
	DurationFormatted string  `json:"duration_formatted"`
}

type ListVideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

// VideoHandlerConfig holds configuration for VideoHandler.
type VideoHandlerConfig struct {
	// BaseURL prefixes the stream and thumbnail links in responses.
	BaseURL string
	// MaxMemory is the part of a multipart body kept in memory.
	MaxMemory int64
	// MaxBodyBytes caps the size of a multipart body.
	MaxBodyBytes int64
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	svc usecase.VideoService
	cfg VideoHandlerConfig
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.VideoService, cfg VideoHandlerConfig) *VideoHandler {
	return &VideoHandler{svc: svc, cfg: cfg}
}

// List handles GET /v1/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repository.VideoFilter
	if v := r.URL.Query().Get("featured"); v != "" {
		featured, err := parseBool(v)
		if err != nil {
			handleServiceError(w, r, validation.Field("featured", "boolean", "featured field must be true or false"))
			return
		}
		filter.FeaturedOnly = featured
	}
	h.list(w, r, filter)
}

// Featured handles GET /v1/videos/featured
func (h *VideoHandler) Featured(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, repository.VideoFilter{FeaturedOnly: true})
}

func (h *VideoHandler) list(w http.ResponseWriter, r *http.Request, filter repository.VideoFilter) {
	videos, err := h.svc.ListVideos(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := ListVideosResponse{Videos: make([]VideoResponse, 0, len(videos))}
	for _, v := range videos {
		resp.Videos = append(resp.Videos, h.toVideoResponse(v))
	}
	JSON(w, http.StatusOK, resp)
}

// Get handles GET /v1/videos/{id}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	video, ok := h.lookup(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, h.toVideoResponse(video))
}

// Info handles GET /v1/videos/{id}/info
func (h *VideoHandler) Info(w http.ResponseWriter, r *http.Request) {
	video, ok := h.lookup(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, VideoInfoResponse{
		VideoResponse:     h.toVideoResponse(video),
		DurationMinutes:   video.DurationMinutes(),
		DurationFormatted: video.DurationFormatted(),
	})
}

func (h *VideoHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Video, bool) {
	videoID, ok := parseVideoID(r)
	if !ok {
		invalidVideoID(w)
		return nil, false
	}

	video, err := h.svc.GetVideo(r.Context(), videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return nil, false
	}
	return video, true
}

// Create handles POST /v1/videos
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateVideoInput

	if isMultipart(r) {
		f, ok := h.parseForm(w, r)
		if !ok {
			return
		}
		defer f.close()

		var err error
		input, err = createInputFromForm(f)
		if err != nil {
			h.badInput(w, r, err)
			return
		}
	} else {
		var req CreateVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			h.badInput(w, r, err)
			return
		}
		input = usecase.CreateVideoInput{
			Draft: model.VideoDraft{
				Title:       req.Title,
				Genre:       req.Genre,
				Description: req.Description,
				Duration:    req.Duration,
				Year:        req.Year,
				IsFeatured:  bool(req.IsFeatured),
			},
			Video:     usecase.MediaInput{Key: req.VideoKey},
			Thumbnail: usecase.MediaInput{Key: req.ThumbnailKey},
		}
	}

	video, err := h.svc.CreateVideo(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusCreated, h.toVideoResponse(video))
}

func createInputFromForm(f *form) (usecase.CreateVideoInput, error) {
	duration, err := f.intPtr("duration")
	if err != nil {
		return usecase.CreateVideoInput{}, err
	}
	year, err := f.intPtr("year")
	if err != nil {
		return usecase.CreateVideoInput{}, err
	}
	featured, err := f.boolPtr("is_featured")
	if err != nil {
		return usecase.CreateVideoInput{}, err
	}
	videoMedia, err := f.media("video")
	if err != nil {
		return usecase.CreateVideoInput{}, err
	}
	thumbMedia, err := f.media("thumbnail")
	if err != nil {
		return usecase.CreateVideoInput{}, err
	}

	return usecase.CreateVideoInput{
		Draft: model.VideoDraft{
			Title:       deref(f.stringPtr("title")),
			Genre:       deref(f.stringPtr("genre")),
			Description: deref(f.stringPtr("description")),
			Duration:    deref(duration),
			Year:        deref(year),
			IsFeatured:  deref(featured),
		},
		Video:     videoMedia,
		Thumbnail: thumbMedia,
	}, nil
}

// Update handles PUT/PATCH /v1/videos/{id} and POST /v1/videos/{id}/update
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseVideoID(r)
	if !ok {
		invalidVideoID(w)
		return
	}

	var input usecase.UpdateVideoInput

	if isMultipart(r) {
		f, ok := h.parseForm(w, r)
		if !ok {
			return
		}
		defer f.close()

		var err error
		input, err = updateInputFromForm(f)
		if err != nil {
			h.badInput(w, r, err)
			return
		}
	} else {
		var req UpdateVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			h.badInput(w, r, err)
			return
		}
		input = usecase.UpdateVideoInput{
			Patch: model.VideoPatch{
				Title:       req.Title,
				Genre:       req.Genre,
				Description: req.Description,
				Duration:    req.Duration,
				Year:        req.Year,
			},
			Video:     usecase.MediaInput{Key: req.VideoKey},
			Thumbnail: usecase.MediaInput{Key: req.ThumbnailKey},
		}
		if req.IsFeatured != nil {
			featured := bool(*req.IsFeatured)
			input.Patch.IsFeatured = &featured
		}
	}

	video, err := h.svc.UpdateVideo(r.Context(), videoID, input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, h.toVideoResponse(video))
}

func updateInputFromForm(f *form) (usecase.UpdateVideoInput, error) {
	duration, err := f.intPtr("duration")
	if err != nil {
		return usecase.UpdateVideoInput{}, err
	}
	year, err := f.intPtr("year")
	if err != nil {
		return usecase.UpdateVideoInput{}, err
	}
	featured, err := f.boolPtr("is_featured")
	if err != nil {
		return usecase.UpdateVideoInput{}, err
	}
	videoMedia, err := f.media("video")
	if err != nil {
		return usecase.UpdateVideoInput{}, err
	}
	thumbMedia, err := f.media("thumbnail")
	if err != nil {
		return usecase.UpdateVideoInput{}, err
	}

	return usecase.UpdateVideoInput{
		Patch: model.VideoPatch{
			Title:       f.stringPtr("title"),
			Genre:       f.stringPtr("genre"),
			Description: f.stringPtr("description"),
			Duration:    duration,
			Year:        year,
			IsFeatured:  featured,
		},
		Video:     videoMedia,
		Thumbnail: thumbMedia,
	}, nil
}

// Delete handles DELETE /v1/videos/{id}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseVideoID(r)
	if !ok {
		invalidVideoID(w)
		return
	}

	if err := h.svc.DeleteVideo(r.Context(), videoID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, MessageResponse{Message: "Video deleted"})
}

// PrepareUpload handles POST /v1/uploads
func (h *VideoHandler) PrepareUpload(w http.ResponseWriter, r *http.Request) {
	var req PrepareUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badInput(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	out, err := h.svc.PrepareUpload(r.Context(), model.MediaKind(req.Kind), req.FileName)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusCreated, PrepareUploadResponse{
		Kind:      out.Kind.String(),
		Key:       out.Key,
		UploadURL: out.UploadURL,
		ExpiresAt: out.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Download handles GET /v1/videos/{id}/download
func (h *VideoHandler) Download(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseVideoID(r)
	if !ok {
		invalidVideoID(w)
		return
	}

	urls, err := h.svc.PresignDownload(r.Context(), videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, DownloadResponse{
		VideoURL:     urls.VideoURL,
		ThumbnailURL: urls.ThumbnailURL,
		ExpiresAt:    urls.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *VideoHandler) parseForm(w http.ResponseWriter, r *http.Request) (*form, bool) {
	if h.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	}
	f, err := parseForm(r, h.cfg.MaxMemory)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "payload_too_large",
				fmt.Sprintf("Request body must not exceed %d bytes", maxErr.Limit))
			return nil, false
		}
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid multipart form")
		return nil, false
	}
	return f, true
}

// badInput reports a request that could not be turned into service input.
func (h *VideoHandler) badInput(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		ValidationFailed(w, verr)
		return
	}
	Error(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
}

func invalidVideoID(w http.ResponseWriter) {
	Error(w, http.StatusBadRequest, "invalid_video_id", "Video ID must be a positive integer")
}

func (h *VideoHandler) toVideoResponse(v *model.Video) VideoResponse {
	return VideoResponse{
		ID:           v.ID,
		Title:        v.Title,
		Genre:        v.Genre,
		Description:  v.Description,
		Duration:     v.Duration,
		Year:         v.Year,
		IsFeatured:   v.IsFeatured,
		VideoKey:     v.VideoKey,
		ThumbnailKey: v.ThumbnailKey,
		StreamURL:    fmt.Sprintf("%s/v1/videos/%d/stream", h.cfg.BaseURL, v.ID),
		ThumbnailURL: fmt.Sprintf("%s/v1/videos/%d/thumbnail", h.cfg.BaseURL, v.ID),
		CreatedAt:    v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    v.UpdatedAt.Format(time.RFC3339),
	}
}
