package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hszk-dev/flixstream/internal/domain/model"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
	"github.com/hszk-dev/flixstream/internal/validation"
)

// sniffLen is how much of an upload is read to detect its real type.
const sniffLen = 3072

// FileUpload is a media file sent directly through the API.
type FileUpload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// MediaInput supplies one media object: either a direct upload or the key of
// an object the client already PUT through a presigned URL.
type MediaInput struct {
	Upload *FileUpload
	Key    string
}

// IsZero reports whether no media was supplied.
func (m MediaInput) IsZero() bool {
	return m.Upload == nil && strings.TrimSpace(m.Key) == ""
}

// CreateVideoInput contains the input parameters for creating a video.
type CreateVideoInput struct {
	Draft     model.VideoDraft
	Video     MediaInput
	Thumbnail MediaInput
}

// UpdateVideoInput carries a metadata patch and optional replacement media.
type UpdateVideoInput struct {
	Patch     model.VideoPatch
	Video     MediaInput
	Thumbnail MediaInput
}

// PrepareUploadOutput is a presigned PUT target for one media object.
type PrepareUploadOutput struct {
	Kind      model.MediaKind
	Key       string
	UploadURL string
	ExpiresAt time.Time
}

// DownloadURLs holds presigned GET URLs for a video's media.
type DownloadURLs struct {
	VideoURL     string
	ThumbnailURL string
	ExpiresAt    time.Time
}

// VideoService defines the interface for video business logic operations.
type VideoService interface {
	// ListVideos returns videos newest first.
	ListVideos(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error)

	// GetVideo retrieves video information by ID.
	GetVideo(ctx context.Context, videoID int64) (*model.Video, error)

	// CreateVideo stores the media and persists a new video record.
	CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error)

	// UpdateVideo applies a patch and swaps media. Replaced objects are
	// cleaned up once the record points at the new ones.
	UpdateVideo(ctx context.Context, videoID int64, input UpdateVideoInput) (*model.Video, error)

	// DeleteVideo removes the record after handing its objects to cleanup.
	DeleteVideo(ctx context.Context, videoID int64) error

	// PrepareUpload issues a presigned upload URL for a new object of kind.
	PrepareUpload(ctx context.Context, kind model.MediaKind, fileName string) (*PrepareUploadOutput, error)

	// PresignDownload issues presigned download URLs for a video's media.
	PresignDownload(ctx context.Context, videoID int64) (*DownloadURLs, error)
}

// VideoServiceConfig holds configuration for VideoService.
type VideoServiceConfig struct {
	Bucket            string
	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration
	MaxVideoSize      int64
	MaxThumbnailSize  int64
}

// DefaultVideoServiceConfig returns the default configuration.
func DefaultVideoServiceConfig(bucket string) VideoServiceConfig {
	return VideoServiceConfig{
		Bucket:            bucket,
		UploadURLExpiry:   15 * time.Minute,
		DownloadURLExpiry: time.Hour,
		MaxVideoSize:      200 << 20,
		MaxThumbnailSize:  4 << 20,
	}
}

type videoService struct {
	repo    repository.VideoRepository
	storage repository.ObjectStorage
	cleaner ObjectCleaner

	bucket            string
	uploadURLExpiry   time.Duration
	downloadURLExpiry time.Duration
	maxSize           map[model.MediaKind]int64
}

// NewVideoService creates a new VideoService instance.
func NewVideoService(
	repo repository.VideoRepository,
	storage repository.ObjectStorage,
	cleaner ObjectCleaner,
	cfg VideoServiceConfig,
) VideoService {
	return &videoService{
		repo:              repo,
		storage:           storage,
		cleaner:           cleaner,
		bucket:            cfg.Bucket,
		uploadURLExpiry:   cfg.UploadURLExpiry,
		downloadURLExpiry: cfg.DownloadURLExpiry,
		maxSize: map[model.MediaKind]int64{
			model.MediaKindVideo:     cfg.MaxVideoSize,
			model.MediaKindThumbnail: cfg.MaxThumbnailSize,
		},
	}
}

func (s *videoService) ListVideos(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	return s.repo.List(ctx, filter)
}

func (s *videoService) GetVideo(ctx context.Context, videoID int64) (*model.Video, error) {
	return s.repo.GetByID(ctx, videoID)
}

func (s *videoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error) {
	draft := input.Draft
	if err := draft.Normalize(); err != nil {
		return nil, err
	}
	if input.Video.IsZero() {
		return nil, validation.Field("video", "required", "video is required")
	}
	if input.Thumbnail.IsZero() {
		return nil, validation.Field("thumbnail", "required", "thumbnail is required")
	}

	media, err := s.prepareAll(map[model.MediaKind]MediaInput{
		model.MediaKindVideo:     input.Video,
		model.MediaKindThumbnail: input.Thumbnail,
	})
	if err != nil {
		return nil, err
	}

	if err := s.commitAll(ctx, media); err != nil {
		return nil, err
	}

	video, err := model.NewVideo(draft, media[model.MediaKindVideo].key, media[model.MediaKindThumbnail].key)
	if err != nil {
		s.discard(ctx, 0, media)
		return nil, err
	}

	if err := s.repo.Create(ctx, video); err != nil {
		s.discard(ctx, 0, media)
		return nil, fmt.Errorf("create video: %w", err)
	}

	return video, nil
}

func (s *videoService) UpdateVideo(ctx context.Context, videoID int64, input UpdateVideoInput) (*model.Video, error) {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if input.Patch.IsEmpty() && input.Video.IsZero() && input.Thumbnail.IsZero() {
		return video, nil
	}

	if err := video.Apply(input.Patch); err != nil {
		return nil, err
	}

	replacements := make(map[model.MediaKind]MediaInput, 2)
	if !input.Video.IsZero() {
		replacements[model.MediaKindVideo] = input.Video
	}
	if !input.Thumbnail.IsZero() {
		replacements[model.MediaKindThumbnail] = input.Thumbnail
	}

	media, err := s.prepareAll(replacements)
	if err != nil {
		return nil, err
	}
	if err := s.commitAll(ctx, media); err != nil {
		return nil, err
	}

	var stale []string
	for kind, m := range media {
		var old string
		switch kind {
		case model.MediaKindVideo:
			old = video.ReplaceVideoKey(m.key)
		case model.MediaKindThumbnail:
			old = video.ReplaceThumbnailKey(m.key)
		}
		if key := s.normalizeOrEmpty(old); key != "" && key != m.key {
			stale = append(stale, key)
		}
	}

	if err := s.repo.Update(ctx, video); err != nil {
		s.discard(ctx, videoID, media)
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update video: %w", err)
	}

	if len(stale) > 0 {
		s.cleaner.Cleanup(ctx, CleanupReasonMediaReplaced, videoID, stale...)
	}

	return video, nil
}

func (s *videoService) DeleteVideo(ctx context.Context, videoID int64) error {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}

	s.cleaner.Cleanup(ctx, CleanupReasonVideoDeleted, videoID,
		s.normalizeOrEmpty(video.VideoKey),
		s.normalizeOrEmpty(video.ThumbnailKey),
	)

	if err := s.repo.Delete(ctx, videoID); err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return err
		}
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

func (s *videoService) PrepareUpload(ctx context.Context, kind model.MediaKind, fileName string) (*PrepareUploadOutput, error) {
	if !kind.IsValid() {
		return nil, validation.Field("kind", "oneof", "kind must be one of: thumbnail video")
	}
	if err := checkExtension(kind, fileName); err != nil {
		return nil, err
	}

	key := newObjectKey(kind, fileName)
	uploadURL, err := s.storage.GeneratePresignedUploadURL(ctx, key, s.uploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate presigned upload URL: %w", err)
	}

	return &PrepareUploadOutput{
		Kind:      kind,
		Key:       key,
		UploadURL: uploadURL,
		ExpiresAt: time.Now().Add(s.uploadURLExpiry),
	}, nil
}

func (s *videoService) PresignDownload(ctx context.Context, videoID int64) (*DownloadURLs, error) {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	urls := &DownloadURLs{ExpiresAt: time.Now().Add(s.downloadURLExpiry)}
	targets := []struct {
		stored string
		dst    *string
	}{
		{video.VideoKey, &urls.VideoURL},
		{video.ThumbnailKey, &urls.ThumbnailURL},
	}
	for _, t := range targets {
		key, err := model.NormalizeContentKey(t.stored, s.bucket)
		if err != nil {
			return nil, fmt.Errorf("%w: video %d: %w", ErrInvalidContent, videoID, err)
		}
		u, err := s.storage.GeneratePresignedDownloadURL(ctx, key, s.downloadURLExpiry)
		if err != nil {
			return nil, fmt.Errorf("generate presigned download URL: %w", err)
		}
		*t.dst = u
	}

	return urls, nil
}

// preparedMedia is a validated media input waiting to be stored or confirmed.
type preparedMedia struct {
	kind        model.MediaKind
	key         string
	upload      *FileUpload
	body        io.Reader
	contentType string
}

// fresh reports whether commit creates a new object the service owns.
func (m *preparedMedia) fresh() bool {
	return m.upload != nil
}

// prepareAll validates every input before anything touches storage.
func (s *videoService) prepareAll(inputs map[model.MediaKind]MediaInput) (map[model.MediaKind]*preparedMedia, error) {
	out := make(map[model.MediaKind]*preparedMedia, len(inputs))
	for _, kind := range []model.MediaKind{model.MediaKindVideo, model.MediaKindThumbnail} {
		in, ok := inputs[kind]
		if !ok {
			continue
		}
		m, err := s.prepare(kind, in)
		if err != nil {
			return nil, err
		}
		out[kind] = m
	}
	return out, nil
}

func (s *videoService) prepare(kind model.MediaKind, in MediaInput) (*preparedMedia, error) {
	field := kind.String()

	if in.Upload == nil {
		key, err := model.NormalizeContentKey(in.Key, s.bucket)
		if err != nil || !kind.OwnsKey(key) {
			return nil, validation.Field(field, "key", fmt.Sprintf("%s must reference an object under %s", field, kind.KeyPrefix()))
		}
		if err := checkExtension(kind, key); err != nil {
			return nil, err
		}
		return &preparedMedia{kind: kind, key: key}, nil
	}

	up := in.Upload
	if err := checkExtension(kind, up.Name); err != nil {
		return nil, err
	}
	if up.Size == 0 {
		return nil, validation.Field(field, "required", fmt.Sprintf("%s must not be empty", field))
	}
	if limit := s.maxSize[kind]; limit > 0 && up.Size > limit {
		return nil, validation.Field(field, "max",
			fmt.Sprintf("%s must not be greater than %d kilobytes", field, limit>>10))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s upload: %w", field, err)
	}
	head = head[:n]

	contentType, ok := sniff(kind, head)
	if !ok {
		return nil, validation.Field(field, "mimetypes",
			fmt.Sprintf("%s content does not match an accepted type (%s)", field, strings.Join(kind.Extensions(), ", ")))
	}

	return &preparedMedia{
		kind:        kind,
		key:         newObjectKey(kind, up.Name),
		upload:      up,
		body:        io.MultiReader(bytes.NewReader(head), up.Reader),
		contentType: contentType,
	}, nil
}

// commitAll stores uploads and confirms presigned keys concurrently. Objects
// uploaded before a failure are cleaned up.
func (s *videoService) commitAll(ctx context.Context, media map[model.MediaKind]*preparedMedia) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range media {
		m := m
		g.Go(func() error {
			return s.commit(gctx, m)
		})
	}

	if err := g.Wait(); err != nil {
		s.discard(ctx, 0, media)
		return err
	}
	return nil
}

func (s *videoService) commit(ctx context.Context, m *preparedMedia) error {
	if m.fresh() {
		if err := s.storage.Upload(ctx, m.key, m.body, m.upload.Size, m.contentType); err != nil {
			return fmt.Errorf("upload %s: %w", m.kind, err)
		}
		return nil
	}

	exists, err := s.storage.Exists(ctx, m.key)
	if err != nil {
		return fmt.Errorf("check %s object: %w", m.kind, err)
	}
	if !exists {
		field := m.kind.String()
		return validation.Field(field, "uploaded", fmt.Sprintf("%s object %s has not been uploaded", field, m.key))
	}
	return nil
}

// discard cleans up objects this request uploaded.
func (s *videoService) discard(ctx context.Context, videoID int64, media map[model.MediaKind]*preparedMedia) {
	var keys []string
	for _, m := range media {
		if m.fresh() {
			keys = append(keys, m.key)
		}
	}
	if len(keys) > 0 {
		s.cleaner.Cleanup(ctx, CleanupReasonWriteFailed, videoID, keys...)
	}
}

func (s *videoService) normalizeOrEmpty(stored string) string {
	key, err := model.NormalizeContentKey(stored, s.bucket)
	if err != nil {
		return ""
	}
	return key
}

func checkExtension(kind model.MediaKind, name string) error {
	if kind.AllowsExtension(name) {
		return nil
	}
	field := kind.String()
	return validation.Field(field, "mimes",
		fmt.Sprintf("%s must be a file of type: %s", field, strings.Join(kind.Extensions(), ", ")))
}

// sniff returns the detected type when it, or one of its parents, is accepted.
func sniff(kind model.MediaKind, head []byte) (string, bool) {
	for mt := mimetype.Detect(head); mt != nil; mt = mt.Parent() {
		if kind.AllowsMIME(mt.String()) {
			return mt.String(), true
		}
	}
	return "", false
}

// newObjectKey builds <prefix><uuid><ext> for a new object.
func newObjectKey(kind model.MediaKind, fileName string) string {
	return kind.KeyPrefix() + uuid.NewString() + strings.ToLower(path.Ext(fileName))
}
