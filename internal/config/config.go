package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Cleanup modes.
const (
	CleanupModeQueue  = "queue"
	CleanupModeInline = "inline"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Worker    WorkerConfig
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Cache     CacheConfig
	Stream    StreamConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Cleanup   CleanupConfig
}

// ServerConfig holds HTTP server settings. A zero WriteTimeout leaves long
// video responses bounded only by the stream fetch timeout.
type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	BaseURL         string        `envconfig:"API_BASE_URL" default:""`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"0s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type WorkerConfig struct {
	MaxRetries      int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type DatabaseConfig struct {
	Host            string        `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port            int           `envconfig:"POSTGRES_PORT" default:"5432"`
	User            string        `envconfig:"POSTGRES_USER" default:"flixstream"`
	Password        string        `envconfig:"POSTGRES_PASSWORD" default:"flixstream"`
	DBName          string        `envconfig:"POSTGRES_DB" default:"flixstream"`
	SSLMode         string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxConns        int32         `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
	MinConns        int32         `envconfig:"POSTGRES_MIN_CONNS" default:"5"`
	MaxConnLifetime time.Duration `envconfig:"POSTGRES_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"POSTGRES_MAX_CONN_IDLE_TIME" default:"30m"`
	ConnectTimeout  time.Duration `envconfig:"POSTGRES_CONNECT_TIMEOUT" default:"10s"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type MinIOConfig struct {
	Endpoint       string        `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string        `envconfig:"MINIO_PUBLIC_ENDPOINT" default:""`
	AccessKey      string        `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string        `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket         string        `envconfig:"MINIO_BUCKET" default:"flix"`
	Region         string        `envconfig:"MINIO_REGION" default:""`
	UseSSL         bool          `envconfig:"MINIO_USE_SSL" default:"false"`
	UploadURLTTL   time.Duration `envconfig:"MINIO_UPLOAD_URL_TTL" default:"15m"`
	DownloadURLTTL time.Duration `envconfig:"MINIO_DOWNLOAD_URL_TTL" default:"1h"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RabbitMQConfig struct {
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"flixstream"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"flixstream"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

type CacheConfig struct {
	VideoTTL    time.Duration `envconfig:"CACHE_VIDEO_TTL" default:"30m"`
	ListTTL     time.Duration `envconfig:"CACHE_LIST_TTL" default:"5m"`
	FeaturedTTL time.Duration `envconfig:"CACHE_FEATURED_TTL" default:"1h"`
}

type StreamConfig struct {
	MetadataTimeout time.Duration `envconfig:"STREAM_METADATA_TIMEOUT" default:"30s"`
	FetchTimeout    time.Duration `envconfig:"STREAM_FETCH_TIMEOUT" default:"10m"`
}

type UploadConfig struct {
	MaxVideoBytes     int64 `envconfig:"UPLOAD_MAX_VIDEO_BYTES" default:"209715200"`
	MaxThumbnailBytes int64 `envconfig:"UPLOAD_MAX_THUMBNAIL_BYTES" default:"4194304"`
	MultipartMemory   int64 `envconfig:"UPLOAD_MULTIPART_MEMORY" default:"33554432"`
}

// MaxBodyBytes bounds a create request carrying both files plus form fields.
func (c UploadConfig) MaxBodyBytes() int64 {
	return c.MaxVideoBytes + c.MaxThumbnailBytes + 1<<20
}

type RateLimitConfig struct {
	PublicPerMinute int `envconfig:"RATE_LIMIT_PUBLIC_PER_MINUTE" default:"100"`
	WritePerMinute  int `envconfig:"RATE_LIMIT_WRITE_PER_MINUTE" default:"60"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

type CleanupConfig struct {
	Mode string `envconfig:"CLEANUP_MODE" default:"queue"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Cleanup.Mode {
	case CleanupModeQueue, CleanupModeInline:
	default:
		return fmt.Errorf("invalid CLEANUP_MODE %q: must be %s or %s", c.Cleanup.Mode, CleanupModeQueue, CleanupModeInline)
	}
	if c.MinIO.Bucket == "" {
		return fmt.Errorf("MINIO_BUCKET must not be empty")
	}
	if c.Worker.MaxRetries < 0 {
		return fmt.Errorf("WORKER_MAX_RETRIES must not be negative")
	}
	return nil
}
