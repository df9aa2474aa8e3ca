package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hszk-dev/flixstream/internal/api/middleware"
	"github.com/hszk-dev/flixstream/internal/domain/model"
	"github.com/hszk-dev/flixstream/internal/infrastructure/metrics"
	"github.com/hszk-dev/flixstream/internal/usecase"
)

const (
	videoCacheControl     = "no-cache"
	thumbnailCacheControl = "public, max-age=86400"
	thumbnailMaxAge       = 24 * time.Hour
)

// StreamHandler relays video and thumbnail bytes from object storage.
type StreamHandler struct {
	svc usecase.StreamService
	now func() time.Time
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(svc usecase.StreamService) *StreamHandler {
	return &StreamHandler{svc: svc, now: time.Now}
}

// Video handles GET /v1/videos/{id}/stream
func (h *StreamHandler) Video(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		metrics.StreamResponsesTotal.WithLabelValues(metrics.StreamEndpointVideo, strconv.Itoa(rec.status)).Inc()
	}()

	videoID, ok := parseVideoID(r)
	if !ok {
		invalidVideoID(rec)
		return
	}

	result, err := h.svc.StreamVideo(r.Context(), videoID, r.Header.Get("Range"))
	if err != nil {
		var unsatisfiable *model.UnsatisfiableRangeError
		switch {
		case errors.As(err, &unsatisfiable):
			rec.Header().Set("Content-Range", model.UnsatisfiedContentRange(unsatisfiable.Size))
			rec.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		case errors.Is(err, model.ErrMalformedRange):
			Error(rec, http.StatusRequestedRangeNotSatisfiable, "invalid_range", "Invalid range")
		default:
			handleServiceError(rec, r, err)
		}
		return
	}
	defer result.Body.Close()

	header := rec.Header()
	header.Set("Content-Type", result.ContentType)
	header.Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	header.Set("Accept-Ranges", "bytes")
	header.Set("Cache-Control", videoCacheControl)

	status := http.StatusOK
	if result.Range != nil {
		header.Set("Content-Range", result.Range.ContentRange(result.Size))
		status = http.StatusPartialContent
	}
	rec.WriteHeader(status)

	relay(r, rec, result.Body, metrics.StreamEndpointVideo)
}

// Thumbnail handles GET /v1/videos/{id}/thumbnail
func (h *StreamHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		metrics.StreamResponsesTotal.WithLabelValues(metrics.StreamEndpointThumbnail, strconv.Itoa(rec.status)).Inc()
	}()

	videoID, ok := parseVideoID(r)
	if !ok {
		invalidVideoID(rec)
		return
	}

	result, err := h.svc.Thumbnail(r.Context(), videoID)
	if err != nil {
		handleServiceError(rec, r, err)
		return
	}
	defer result.Body.Close()

	header := rec.Header()
	header.Set("Content-Type", result.ContentType)
	if result.ContentLength >= 0 {
		header.Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}
	header.Set("Cache-Control", thumbnailCacheControl)
	header.Set("Expires", h.now().Add(thumbnailMaxAge).UTC().Format(http.TimeFormat))
	rec.WriteHeader(http.StatusOK)

	relay(r, rec, result.Body, metrics.StreamEndpointThumbnail)
}

// relay copies body to the client. Headers are already sent, so a failure can
// only be logged.
func relay(r *http.Request, w io.Writer, body io.Reader, endpoint string) {
	n, err := io.Copy(w, body)
	metrics.StreamedBytesTotal.WithLabelValues(endpoint).Add(float64(n))
	if err == nil {
		return
	}

	log := slog.With(
		"request_id", middleware.GetRequestID(r.Context()),
		"path", r.URL.Path,
		"bytes", n,
		"error", err,
	)
	if r.Context().Err() != nil {
		log.Debug("client went away during stream")
		return
	}
	log.Warn("stream relay interrupted")
}

// statusRecorder remembers the status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
