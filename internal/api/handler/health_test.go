package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHealthHandler(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }

	tests := []struct {
		name       string
		checks     map[string]Checker
		wantStatus int
		wantBody   HealthResponse
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantBody:   HealthResponse{Status: "ok"},
		},
		{
			name:       "all healthy",
			checks:     map[string]Checker{"postgres": ok, "redis": ok},
			wantStatus: http.StatusOK,
			wantBody:   HealthResponse{Status: "ok", Checks: map[string]string{"postgres": "ok", "redis": "ok"}},
		},
		{
			name: "one failing",
			checks: map[string]Checker{
				"postgres": ok,
				"storage": func(ctx context.Context) error {
					return errors.New("dial tcp minio.internal:9000: connection refused")
				},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: HealthResponse{Status: "degraded", Checks: map[string]string{
				"postgres": "ok",
				"storage":  "error",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checks, time.Second)

			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			if strings.Contains(rec.Body.String(), "minio.internal") {
				t.Errorf("response leaks dependency detail: %s", rec.Body.String())
			}

			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Status != tt.wantBody.Status {
				t.Errorf("status = %s, want %s", resp.Status, tt.wantBody.Status)
			}
			if len(resp.Checks) != len(tt.wantBody.Checks) {
				t.Fatalf("checks = %v, want %v", resp.Checks, tt.wantBody.Checks)
			}
			for k, v := range tt.wantBody.Checks {
				if resp.Checks[k] != v {
					t.Errorf("check %s = %q, want %q", k, resp.Checks[k], v)
				}
			}
		})
	}
}
