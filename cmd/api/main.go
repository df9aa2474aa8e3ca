package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/flixstream/internal/api/handler"
	"github.com/hszk-dev/flixstream/internal/api/middleware"
	"github.com/hszk-dev/flixstream/internal/config"
	"github.com/hszk-dev/flixstream/internal/infrastructure/cache"
	"github.com/hszk-dev/flixstream/internal/infrastructure/metrics"
	"github.com/hszk-dev/flixstream/internal/infrastructure/postgres"
	"github.com/hszk-dev/flixstream/internal/infrastructure/queue"
	"github.com/hszk-dev/flixstream/internal/infrastructure/storage"
	"github.com/hszk-dev/flixstream/internal/usecase"
)

const healthCheckTimeout = 3 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	pgClient, err := postgres.NewClient(ctx, postgres.ClientConfig{
		DSN:             cfg.Database.DSN(),
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	metrics.RegisterPoolStats(pgClient.PoolStats)
	logger.Info("connected to PostgreSQL")

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:       cfg.MinIO.Endpoint,
		PublicEndpoint: cfg.MinIO.PublicEndpoint,
		AccessKey:      cfg.MinIO.AccessKey,
		SecretKey:      cfg.MinIO.SecretKey,
		Bucket:         cfg.MinIO.Bucket,
		Region:         cfg.MinIO.Region,
		UseSSL:         cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO", slog.String("bucket", cfg.MinIO.Bucket))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	checks := map[string]handler.Checker{
		"postgres": pgClient.Ping,
		"storage":  storageClient.Ping,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}

	cleaner := usecase.NewStorageCleaner(storageClient)
	if cfg.Cleanup.Mode == config.CleanupModeQueue {
		queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer queueClient.Close()
		logger.Info("connected to RabbitMQ")

		cleaner = usecase.NewQueueCleaner(queueClient, cleaner)
		checks["queue"] = func(context.Context) error {
			return queueClient.Ping()
		}
	}

	videoRepo := postgres.NewVideoRepository(pgClient.Pool())
	videoSvc := usecase.NewVideoService(videoRepo, storageClient, cleaner, usecase.VideoServiceConfig{
		Bucket:            cfg.MinIO.Bucket,
		UploadURLExpiry:   cfg.MinIO.UploadURLTTL,
		DownloadURLExpiry: cfg.MinIO.DownloadURLTTL,
		MaxVideoSize:      cfg.Upload.MaxVideoBytes,
		MaxThumbnailSize:  cfg.Upload.MaxThumbnailBytes,
	})
	cachedVideoSvc := usecase.NewCachedVideoService(
		videoSvc,
		cache.NewRedisVideoCache(redisClient),
		usecase.CachedVideoServiceConfig{
			VideoTTL:    cfg.Cache.VideoTTL,
			ListTTL:     cfg.Cache.ListTTL,
			FeaturedTTL: cfg.Cache.FeaturedTTL,
		},
	)
	streamSvc := usecase.NewStreamService(cachedVideoSvc, storageClient, usecase.StreamServiceConfig{
		Bucket:          cfg.MinIO.Bucket,
		MetadataTimeout: cfg.Stream.MetadataTimeout,
		FetchTimeout:    cfg.Stream.FetchTimeout,
	})

	r := setupRouter(logger, cfg, routerDeps{
		video: handler.NewVideoHandler(cachedVideoSvc, handler.VideoHandlerConfig{
			BaseURL:      cfg.Server.BaseURL,
			MaxMemory:    cfg.Upload.MultipartMemory,
			MaxBodyBytes: cfg.Upload.MaxBodyBytes(),
		}),
		stream: handler.NewStreamHandler(streamSvc),
		health: handler.NewHealthHandler(checks, healthCheckTimeout),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.Int("port", cfg.Server.Port),
			slog.String("cleanup_mode", cfg.Cleanup.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

type routerDeps struct {
	video  *handler.VideoHandler
	stream *handler.StreamHandler
	health *handler.HealthHandler
}

func setupRouter(logger *slog.Logger, cfg *config.Config, deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.Get("/health", deps.health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimit.PublicPerMinute, time.Minute))

			r.Get("/videos", deps.video.List)
			r.Get("/videos/featured", deps.video.Featured)
			r.Get("/videos/{id}", deps.video.Get)
			r.Get("/videos/{id}/info", deps.video.Info)
			r.Get("/videos/{id}/stream", deps.stream.Video)
			r.Get("/videos/{id}/thumbnail", deps.stream.Thumbnail)
			r.Get("/videos/{id}/download", deps.video.Download)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimit.WritePerMinute, time.Minute))

			r.Post("/videos", deps.video.Create)
			r.Put("/videos/{id}", deps.video.Update)
			r.Patch("/videos/{id}", deps.video.Update)
			r.Post("/videos/{id}/update", deps.video.Update)
			r.Delete("/videos/{id}", deps.video.Delete)
			r.Post("/uploads", deps.video.PrepareUpload)
		})
	})

	return r
}
