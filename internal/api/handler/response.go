package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hszk-dev/flixstream/internal/api/middleware"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
	"github.com/hszk-dev/flixstream/internal/usecase"
	"github.com/hszk-dev/flixstream/internal/validation"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

type ErrorResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message,omitempty"`
	Details []validation.FieldError `json:"details,omitempty"`
}

func Error(w http.ResponseWriter, status int, err string, message string) {
	JSON(w, status, ErrorResponse{
		Error:   err,
		Message: message,
	})
}

// ValidationFailed writes a 422 carrying every field error.
func ValidationFailed(w http.ResponseWriter, verr *validation.RequestValidationError) {
	JSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_failed",
		Message: "The given data was invalid",
		Details: verr.Fields,
	})
}

type MessageResponse struct {
	Message string `json:"message"`
}

// handleServiceError maps usecase and repository errors to responses and logs
// them at the level their cause deserves.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slog.With(
		"request_id", middleware.GetRequestID(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)

	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(w, verr)
	case errors.Is(err, repository.ErrVideoNotFound):
		log.Info("video not found")
		Error(w, http.StatusNotFound, "video_not_found", "Video not found")
	case errors.Is(err, usecase.ErrInvalidContent):
		log.Warn("stored content reference is invalid")
		Error(w, http.StatusBadRequest, "invalid_content", "Invalid content path")
	case errors.Is(err, usecase.ErrUpstreamNotFound):
		log.Warn("object missing from storage")
		Error(w, http.StatusNotFound, "content_not_found", "Content file not found")
	case errors.Is(err, usecase.ErrUpstream):
		log.Error("object storage request failed")
		Error(w, http.StatusInternalServerError, "upstream_error", "Error fetching content")
	default:
		log.Error("request failed")
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
