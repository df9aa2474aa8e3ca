package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/hszk-dev/flixstream/internal/api/middleware"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler runs dependency checks concurrently.
type HealthHandler struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. With no checks it always reports ok.
func NewHealthHandler(checks map[string]Checker, timeout time.Duration) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: timeout}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if len(h.checks) == 0 {
		JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		i, name := i, name
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.checks[name](ctx); err != nil {
				// Detail stays in the log; the body is public.
				slog.Warn("health check failed",
					"request_id", middleware.GetRequestID(r.Context()),
					"check", name,
					"error", err,
				)
				results[i] = "error"
				return
			}
			results[i] = "ok"
		}()
	}
	wg.Wait()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i] != "ok" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	JSON(w, status, resp)
}
