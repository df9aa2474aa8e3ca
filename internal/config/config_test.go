package config

import (
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Errorf("Server.WriteTimeout = %v, want 0", cfg.Server.WriteTimeout)
	}
	if cfg.MinIO.Bucket != "flix" {
		t.Errorf("MinIO.Bucket = %q, want flix", cfg.MinIO.Bucket)
	}
	if cfg.Cache.VideoTTL != 30*time.Minute || cfg.Cache.ListTTL != 5*time.Minute || cfg.Cache.FeaturedTTL != time.Hour {
		t.Errorf("unexpected cache TTLs: %+v", cfg.Cache)
	}
	if cfg.Stream.MetadataTimeout != 30*time.Second || cfg.Stream.FetchTimeout != 10*time.Minute {
		t.Errorf("unexpected stream timeouts: %+v", cfg.Stream)
	}
	if cfg.Upload.MaxVideoBytes != 200<<20 || cfg.Upload.MaxThumbnailBytes != 4<<20 {
		t.Errorf("unexpected upload limits: %+v", cfg.Upload)
	}
	if cfg.RateLimit.PublicPerMinute != 100 || cfg.RateLimit.WritePerMinute != 60 {
		t.Errorf("unexpected rate limits: %+v", cfg.RateLimit)
	}
	if cfg.Cleanup.Mode != CleanupModeQueue {
		t.Errorf("Cleanup.Mode = %q, want %q", cfg.Cleanup.Mode, CleanupModeQueue)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("MINIO_BUCKET", "media")
	t.Setenv("CACHE_LIST_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CLEANUP_MODE", "inline")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.MinIO.Bucket != "media" {
		t.Errorf("MinIO.Bucket = %q, want media", cfg.MinIO.Bucket)
	}
	if cfg.Cache.ListTTL != 90*time.Second {
		t.Errorf("Cache.ListTTL = %v, want 90s", cfg.Cache.ListTTL)
	}
	wantOrigins := []string{"https://a.example", "https://b.example"}
	if !slices.Equal(cfg.CORS.AllowedOrigins, wantOrigins) {
		t.Errorf("CORS.AllowedOrigins = %v, want %v", cfg.CORS.AllowedOrigins, wantOrigins)
	}
	if cfg.Cleanup.Mode != CleanupModeInline {
		t.Errorf("Cleanup.Mode = %q, want %q", cfg.Cleanup.Mode, CleanupModeInline)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "unknown cleanup mode", key: "CLEANUP_MODE", value: "cron", wantErr: "CLEANUP_MODE"},
		{name: "negative retries", key: "WORKER_MAX_RETRIES", value: "-1", wantErr: "WORKER_MAX_RETRIES"},
		{name: "non-numeric port", key: "API_PORT", value: "http", wantErr: "failed to load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "flix", SSLMode: "disable"}
	if got, want := db.DSN(), "postgres://u:p@db:5433/flix?sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}

	mq := RabbitMQConfig{Host: "mq", Port: 5672, User: "u", Password: "p", VHost: "/"}
	if got, want := mq.URL(), "amqp://u:p@mq:5672/"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}

	rc := RedisConfig{Host: "cache", Port: 6380}
	if got, want := rc.Addr(), "cache:6380"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{level: "debug", want: slog.LevelDebug},
		{level: "WARN", want: slog.LevelWarn},
		{level: "error", want: slog.LevelError},
		{level: "info", want: slog.LevelInfo},
		{level: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := (LogConfig{Level: tt.level}).SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}
