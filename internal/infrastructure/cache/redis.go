package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/flixstream/internal/domain/model"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
	"github.com/hszk-dev/flixstream/internal/infrastructure/metrics"
)

const (
	// videoCacheKeyPrefix is the prefix for single video keys in Redis.
	videoCacheKeyPrefix = "video:"

	listAllKey      = "videos:all"
	listFeaturedKey = "videos:featured"
)

// videoJSON is the JSON representation of a Video for caching.
// Using explicit struct avoids coupling to domain model's JSON tags.
type videoJSON struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Genre        string `json:"genre"`
	Description  string `json:"description"`
	Duration     int    `json:"duration"`
	Year         int    `json:"year"`
	IsFeatured   bool   `json:"is_featured"`
	VideoKey     string `json:"video_key"`
	ThumbnailKey string `json:"thumbnail_key"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// RedisVideoCache implements VideoCache using Redis as the backing store.
type RedisVideoCache struct {
	client *redis.Client
}

var _ VideoCache = (*RedisVideoCache)(nil)

// NewRedisVideoCache creates a new Redis-backed video cache.
func NewRedisVideoCache(client *redis.Client) *RedisVideoCache {
	return &RedisVideoCache{
		client: client,
	}
}

// Get retrieves a video from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisVideoCache) Get(ctx context.Context, videoID int64) (*model.Video, error) {
	data, err := c.client.Get(ctx, VideoKey(videoID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			record(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheEntityVideo)
			return nil, nil
		}
		record(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheEntityVideo)
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var v videoJSON
	if err := json.Unmarshal(data, &v); err != nil {
		record(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheEntityVideo)
		return nil, fmt.Errorf("deserialize video: %w", err)
	}
	video, err := fromJSON(v)
	if err != nil {
		record(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheEntityVideo)
		return nil, fmt.Errorf("deserialize video: %w", err)
	}

	record(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheEntityVideo)
	return video, nil
}

// Set stores a video in Redis cache with the specified TTL.
func (c *RedisVideoCache) Set(ctx context.Context, video *model.Video, ttl time.Duration) error {
	data, err := json.Marshal(toJSON(video))
	if err != nil {
		return fmt.Errorf("serialize video: %w", err)
	}

	if err := c.client.Set(ctx, VideoKey(video.ID), data, ttl).Err(); err != nil {
		record(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheEntityVideo)
		return fmt.Errorf("redis set: %w", err)
	}

	record(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheEntityVideo)
	return nil
}

// Delete removes a video from Redis cache.
func (c *RedisVideoCache) Delete(ctx context.Context, videoID int64) error {
	if err := c.client.Del(ctx, VideoKey(videoID)).Err(); err != nil {
		record(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheEntityVideo)
		return fmt.Errorf("redis del: %w", err)
	}

	record(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheEntityVideo)
	return nil
}

// GetList retrieves a cached listing for filter.
func (c *RedisVideoCache) GetList(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, bool, error) {
	data, err := c.client.Get(ctx, ListKey(filter)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			record(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheEntityVideoList)
			return nil, false, nil
		}
		record(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheEntityVideoList)
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var items []videoJSON
	if err := json.Unmarshal(data, &items); err != nil {
		record(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheEntityVideoList)
		return nil, false, fmt.Errorf("deserialize video list: %w", err)
	}

	videos := make([]*model.Video, 0, len(items))
	for _, item := range items {
		video, err := fromJSON(item)
		if err != nil {
			record(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheEntityVideoList)
			return nil, false, fmt.Errorf("deserialize video list: %w", err)
		}
		videos = append(videos, video)
	}

	record(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheEntityVideoList)
	return videos, true, nil
}

// SetList stores a listing with the specified TTL.
func (c *RedisVideoCache) SetList(ctx context.Context, filter repository.VideoFilter, videos []*model.Video, ttl time.Duration) error {
	items := make([]videoJSON, 0, len(videos))
	for _, v := range videos {
		items = append(items, toJSON(v))
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("serialize video list: %w", err)
	}

	if err := c.client.Set(ctx, ListKey(filter), data, ttl).Err(); err != nil {
		record(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheEntityVideoList)
		return fmt.Errorf("redis set: %w", err)
	}

	record(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheEntityVideoList)
	return nil
}

// DeleteLists removes both the full and featured listings.
func (c *RedisVideoCache) DeleteLists(ctx context.Context) error {
	if err := c.client.Del(ctx, listAllKey, listFeaturedKey).Err(); err != nil {
		record(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheEntityVideoList)
		return fmt.Errorf("redis del: %w", err)
	}

	record(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheEntityVideoList)
	return nil
}

// VideoKey is the cache key for a single video. Callers coalescing reads use
// the same key.
func VideoKey(videoID int64) string {
	return videoCacheKeyPrefix + strconv.FormatInt(videoID, 10)
}

// ListKey is the cache key for a listing.
func ListKey(filter repository.VideoFilter) string {
	if filter.FeaturedOnly {
		return listFeaturedKey
	}
	return listAllKey
}

func record(op, status, entity string) {
	metrics.CacheOperationsTotal.WithLabelValues(op, status, entity).Inc()
}

func toJSON(video *model.Video) videoJSON {
	return videoJSON{
		ID:           video.ID,
		Title:        video.Title,
		Genre:        video.Genre,
		Description:  video.Description,
		Duration:     video.Duration,
		Year:         video.Year,
		IsFeatured:   video.IsFeatured,
		VideoKey:     video.VideoKey,
		ThumbnailKey: video.ThumbnailKey,
		CreatedAt:    video.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:    video.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func fromJSON(v videoJSON) (*model.Video, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &model.Video{
		ID:           v.ID,
		Title:        v.Title,
		Genre:        v.Genre,
		Description:  v.Description,
		Duration:     v.Duration,
		Year:         v.Year,
		IsFeatured:   v.IsFeatured,
		VideoKey:     v.VideoKey,
		ThumbnailKey: v.ThumbnailKey,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
