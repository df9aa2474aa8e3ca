package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/flixstream/internal/domain/model"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
	"github.com/hszk-dev/flixstream/internal/infrastructure/cache"
	"github.com/hszk-dev/flixstream/internal/infrastructure/metrics"
)

// CachedVideoServiceConfig holds configuration for CachedVideoService.
type CachedVideoServiceConfig struct {
	// VideoTTL is the TTL for a single cached video.
	VideoTTL time.Duration
	// ListTTL is the TTL for the full listing.
	ListTTL time.Duration
	// FeaturedTTL is the TTL for the featured listing.
	FeaturedTTL time.Duration
}

// DefaultCachedVideoServiceConfig returns the default configuration.
func DefaultCachedVideoServiceConfig() CachedVideoServiceConfig {
	return CachedVideoServiceConfig{
		VideoTTL:    30 * time.Minute,
		ListTTL:     5 * time.Minute,
		FeaturedTTL: time.Hour,
	}
}

// cachedVideoService wraps VideoService with cache-aside reads.
// Every write invalidates the touched video and both listings.
type cachedVideoService struct {
	delegate VideoService
	cache    cache.VideoCache
	sfGroup  singleflight.Group

	videoTTL    time.Duration
	listTTL     time.Duration
	featuredTTL time.Duration
}

// NewCachedVideoService creates a new CachedVideoService wrapping the provided VideoService.
func NewCachedVideoService(
	delegate VideoService,
	videoCache cache.VideoCache,
	cfg CachedVideoServiceConfig,
) VideoService {
	return &cachedVideoService{
		delegate:    delegate,
		cache:       videoCache,
		videoTTL:    cfg.VideoTTL,
		listTTL:     cfg.ListTTL,
		featuredTTL: cfg.FeaturedTTL,
	}
}

// GetVideo retrieves a video through the cache.
// Concurrent misses for the same ID share one database read.
func (s *cachedVideoService) GetVideo(ctx context.Context, videoID int64) (*model.Video, error) {
	result, err := s.do(cache.VideoKey(videoID), func() (any, error) {
		return s.getVideoWithCache(ctx, videoID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Video), nil
}

func (s *cachedVideoService) getVideoWithCache(ctx context.Context, videoID int64) (*model.Video, error) {
	video, err := s.cache.Get(ctx, videoID)
	if err != nil {
		slog.Warn("cache get failed, falling back to database",
			"video_id", videoID,
			"error", err,
		)
	}
	if video != nil {
		return video, nil
	}

	video, err = s.delegate.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, video, s.videoTTL); err != nil {
		slog.Warn("failed to cache video",
			"video_id", videoID,
			"error", err,
		)
	}

	return video, nil
}

// ListVideos retrieves a listing through the cache.
func (s *cachedVideoService) ListVideos(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	result, err := s.do(cache.ListKey(filter), func() (any, error) {
		return s.listWithCache(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*model.Video), nil
}

func (s *cachedVideoService) listWithCache(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	videos, ok, err := s.cache.GetList(ctx, filter)
	if err != nil {
		slog.Warn("cache list get failed, falling back to database",
			"featured", filter.FeaturedOnly,
			"error", err,
		)
	}
	if ok {
		return videos, nil
	}

	videos, err = s.delegate.ListVideos(ctx, filter)
	if err != nil {
		return nil, err
	}

	ttl := s.listTTL
	if filter.FeaturedOnly {
		ttl = s.featuredTTL
	}
	if err := s.cache.SetList(ctx, filter, videos, ttl); err != nil {
		slog.Warn("failed to cache video list",
			"featured", filter.FeaturedOnly,
			"error", err,
		)
	}

	return videos, nil
}

func (s *cachedVideoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error) {
	video, err := s.delegate.CreateVideo(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, video.ID)
	return video, nil
}

func (s *cachedVideoService) UpdateVideo(ctx context.Context, videoID int64, input UpdateVideoInput) (*model.Video, error) {
	video, err := s.delegate.UpdateVideo(ctx, videoID, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, videoID)
	return video, nil
}

func (s *cachedVideoService) DeleteVideo(ctx context.Context, videoID int64) error {
	if err := s.delegate.DeleteVideo(ctx, videoID); err != nil {
		return err
	}
	s.invalidate(ctx, videoID)
	return nil
}

// PrepareUpload does not touch cached data.
func (s *cachedVideoService) PrepareUpload(ctx context.Context, kind model.MediaKind, fileName string) (*PrepareUploadOutput, error) {
	return s.delegate.PrepareUpload(ctx, kind, fileName)
}

// PresignDownload is never cached; the URLs expire.
func (s *cachedVideoService) PresignDownload(ctx context.Context, videoID int64) (*DownloadURLs, error) {
	return s.delegate.PresignDownload(ctx, videoID)
}

// do runs fn through singleflight and records whether the result was shared.
func (s *cachedVideoService) do(key string, fn func() (any, error)) (any, error) {
	result, err, shared := s.sfGroup.Do(key, fn)
	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}
	return result, err
}

// invalidate drops the video entry and both listings. Failures only log;
// entries expire on their TTL.
func (s *cachedVideoService) invalidate(ctx context.Context, videoID int64) {
	if err := s.cache.Delete(ctx, videoID); err != nil {
		slog.Warn("failed to invalidate cached video",
			"video_id", videoID,
			"error", err,
		)
	}
	if err := s.cache.DeleteLists(ctx); err != nil {
		slog.Warn("failed to invalidate cached video lists",
			"video_id", videoID,
			"error", err,
		)
	}
}
