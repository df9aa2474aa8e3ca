package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hszk-dev/flixstream/internal/domain/model"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
)

// ContentSource identifies the object backing one of a video's media.
type ContentSource struct {
	Key  string
	Kind model.MediaKind
}

// StreamResult is an open upstream body ready to be relayed.
// Range is nil for full-body responses.
type StreamResult struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Size          int64
	Range         *model.ByteRange
}

// VideoFinder looks up video records. VideoService satisfies it, so the
// cached decorator can sit in front of the metadata store.
type VideoFinder interface {
	GetVideo(ctx context.Context, id int64) (*model.Video, error)
}

// StreamService proxies video and thumbnail bytes from object storage.
type StreamService interface {
	// ResolveVideo maps a video ID to the normalized key of its video object.
	ResolveVideo(ctx context.Context, id int64) (*ContentSource, error)

	// ResolveThumbnail maps a video ID to the normalized key of its thumbnail.
	ResolveThumbnail(ctx context.Context, id int64) (*ContentSource, error)

	// Inspect asks upstream for the object's current size and type.
	Inspect(ctx context.Context, key string) (*repository.ObjectInfo, error)

	// StreamVideo opens the video body, honoring rangeHeader when non-empty.
	// Range failures are returned as model.ErrMalformedRange or a
	// *model.UnsatisfiableRangeError. The caller must close Body.
	StreamVideo(ctx context.Context, id int64, rangeHeader string) (*StreamResult, error)

	// Thumbnail opens the full thumbnail body. The caller must close Body.
	Thumbnail(ctx context.Context, id int64) (*StreamResult, error)
}

// StreamServiceConfig holds configuration for StreamService.
type StreamServiceConfig struct {
	Bucket          string
	MetadataTimeout time.Duration
	FetchTimeout    time.Duration
}

// DefaultStreamServiceConfig returns the default configuration.
func DefaultStreamServiceConfig(bucket string) StreamServiceConfig {
	return StreamServiceConfig{
		Bucket:          bucket,
		MetadataTimeout: 30 * time.Second,
		FetchTimeout:    10 * time.Minute,
	}
}

type streamService struct {
	videos  VideoFinder
	storage repository.ObjectStorage

	bucket          string
	metadataTimeout time.Duration
	fetchTimeout    time.Duration
}

// NewStreamService creates a new StreamService.
func NewStreamService(videos VideoFinder, storage repository.ObjectStorage, cfg StreamServiceConfig) StreamService {
	return &streamService{
		videos:          videos,
		storage:         storage,
		bucket:          cfg.Bucket,
		metadataTimeout: cfg.MetadataTimeout,
		fetchTimeout:    cfg.FetchTimeout,
	}
}

func (s *streamService) ResolveVideo(ctx context.Context, id int64) (*ContentSource, error) {
	return s.resolve(ctx, id, model.MediaKindVideo)
}

func (s *streamService) ResolveThumbnail(ctx context.Context, id int64) (*ContentSource, error) {
	return s.resolve(ctx, id, model.MediaKindThumbnail)
}

func (s *streamService) resolve(ctx context.Context, id int64, kind model.MediaKind) (*ContentSource, error) {
	video, err := s.videos.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	stored := video.VideoKey
	if kind == model.MediaKindThumbnail {
		stored = video.ThumbnailKey
	}

	key, err := model.NormalizeContentKey(stored, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: video %d %s: %w", ErrInvalidContent, id, kind, err)
	}

	return &ContentSource{Key: key, Kind: kind}, nil
}

func (s *streamService) Inspect(ctx context.Context, key string) (*repository.ObjectInfo, error) {
	ctx, cancel := s.withTimeout(ctx, s.metadataTimeout)
	defer cancel()

	info, err := s.storage.Stat(ctx, key)
	if err != nil {
		return nil, upstreamError(key, err)
	}
	return info, nil
}

func (s *streamService) StreamVideo(ctx context.Context, id int64, rangeHeader string) (*StreamResult, error) {
	src, err := s.ResolveVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	// Size is re-read on every request; objects can be replaced between
	// cache refreshes.
	info, err := s.Inspect(ctx, src.Key)
	if err != nil {
		return nil, err
	}

	var rng *model.ByteRange
	if rangeHeader != "" {
		r, err := model.ParseByteRange(rangeHeader, info.Size)
		if err != nil {
			return nil, err
		}
		rng = &r
	}

	obj, cancel, err := s.open(ctx, src.Key, rng)
	if err != nil {
		return nil, err
	}

	result := &StreamResult{
		Body:          &cancelOnClose{ReadCloser: obj, cancel: cancel},
		ContentType:   contentType(src, info.ContentType, obj.Info.ContentType),
		ContentLength: info.Size,
		Size:          info.Size,
		Range:         rng,
	}
	if rng != nil {
		result.ContentLength = rng.Length()
	}
	return result, nil
}

func (s *streamService) Thumbnail(ctx context.Context, id int64) (*StreamResult, error) {
	src, err := s.ResolveThumbnail(ctx, id)
	if err != nil {
		return nil, err
	}

	obj, cancel, err := s.open(ctx, src.Key, nil)
	if err != nil {
		return nil, err
	}

	return &StreamResult{
		Body:          &cancelOnClose{ReadCloser: obj, cancel: cancel},
		ContentType:   contentType(src, obj.Info.ContentType),
		ContentLength: obj.Info.Size,
		Size:          obj.Info.Size,
	}, nil
}

// open performs the single upstream fetch for a request. The returned cancel
// must be called once the body is no longer read.
func (s *streamService) open(ctx context.Context, key string, rng *model.ByteRange) (*repository.Object, context.CancelFunc, error) {
	ctx, cancel := s.withTimeout(ctx, s.fetchTimeout)

	obj, err := s.storage.Open(ctx, key, rng)
	if err != nil {
		cancel()
		return nil, nil, upstreamError(key, err)
	}
	return obj, cancel, nil
}

func (s *streamService) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func upstreamError(key string, err error) error {
	if errors.Is(err, repository.ErrObjectNotFound) {
		return fmt.Errorf("%w: %s", ErrUpstreamNotFound, key)
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, key, err)
}

// contentType returns the first declared type, falling back to a guess from
// the key's extension.
func contentType(src *ContentSource, declared ...string) string {
	for _, ct := range declared {
		if ct != "" {
			return ct
		}
	}
	return model.GuessContentType(src.Key, src.Kind)
}

// cancelOnClose releases the fetch context together with the body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
