package usecase

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hszk-dev/flixstream/internal/domain/model"
	"github.com/hszk-dev/flixstream/internal/domain/repository"
)

// mockVideoRepository provides a configurable mock for VideoRepository.
type mockVideoRepository struct {
	createFn  func(ctx context.Context, video *model.Video) error
	getByIDFn func(ctx context.Context, id int64) (*model.Video, error)
	listFn    func(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error)
	updateFn  func(ctx context.Context, video *model.Video) error
	deleteFn  func(ctx context.Context, id int64) error
}

func (m *mockVideoRepository) Create(ctx context.Context, video *model.Video) error {
	if m.createFn != nil {
		return m.createFn(ctx, video)
	}
	video.ID = 1
	return nil
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id int64) (*model.Video, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) List(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoRepository) Update(ctx context.Context, video *model.Video) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// storedObject is an in-memory object for mockObjectStorage.
type storedObject struct {
	data        []byte
	contentType string
}

// mockObjectStorage serves objects from memory unless a fn override is set.
type mockObjectStorage struct {
	mu      sync.Mutex
	objects map[string]storedObject

	generatePresignedUploadURLFn   func(ctx context.Context, key string, expiry time.Duration) (string, error)
	generatePresignedDownloadURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
	uploadFn                       func(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	statFn                         func(ctx context.Context, key string) (*repository.ObjectInfo, error)
	openFn                         func(ctx context.Context, key string, rng *model.ByteRange) (*repository.Object, error)
	deleteFn                       func(ctx context.Context, key string) error
	existsFn                       func(ctx context.Context, key string) (bool, error)

	statCalls   atomic.Int32
	openCalls   atomic.Int32
	deleted     []string
	openedRange *model.ByteRange
}

func newMockObjectStorage() *mockObjectStorage {
	return &mockObjectStorage{objects: make(map[string]storedObject)}
}

func (m *mockObjectStorage) put(key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = storedObject{data: data, contentType: contentType}
}

func (m *mockObjectStorage) get(key string) (storedObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

func (m *mockObjectStorage) GeneratePresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedUploadURLFn != nil {
		return m.generatePresignedUploadURLFn(ctx, key, expiry)
	}
	return "http://storage.local/flix/" + key + "?op=put", nil
}

func (m *mockObjectStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedDownloadURLFn != nil {
		return m.generatePresignedDownloadURLFn(ctx, key, expiry)
	}
	return "http://storage.local/flix/" + key + "?op=get", nil
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, reader, size, contentType)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.put(key, data, contentType)
	return nil
}

func (m *mockObjectStorage) Stat(ctx context.Context, key string) (*repository.ObjectInfo, error) {
	m.statCalls.Add(1)
	if m.statFn != nil {
		return m.statFn(ctx, key)
	}
	obj, ok := m.get(key)
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &repository.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (m *mockObjectStorage) Open(ctx context.Context, key string, rng *model.ByteRange) (*repository.Object, error) {
	m.openCalls.Add(1)
	m.mu.Lock()
	m.openedRange = rng
	m.mu.Unlock()
	if m.openFn != nil {
		return m.openFn(ctx, key, rng)
	}
	obj, ok := m.get(key)
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	data := obj.data
	if rng != nil {
		data = data[rng.Start : rng.End+1]
	}
	return &repository.Object{
		ReadCloser: io.NopCloser(bytes.NewReader(data)),
		Info:       repository.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: obj.contentType},
	}, nil
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, key)
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	_, ok := m.get(key)
	return ok, nil
}

func (m *mockObjectStorage) deletedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// mockMessageQueue provides a configurable mock for MessageQueue.
type mockMessageQueue struct {
	publishCleanupTaskFn  func(ctx context.Context, task repository.CleanupTask) error
	consumeCleanupTasksFn func(ctx context.Context, handler func(task repository.CleanupTask) error) error
	published             []repository.CleanupTask
}

func (m *mockMessageQueue) PublishCleanupTask(ctx context.Context, task repository.CleanupTask) error {
	m.published = append(m.published, task)
	if m.publishCleanupTaskFn != nil {
		return m.publishCleanupTaskFn(ctx, task)
	}
	return nil
}

func (m *mockMessageQueue) ConsumeCleanupTasks(ctx context.Context, handler func(task repository.CleanupTask) error) error {
	if m.consumeCleanupTasksFn != nil {
		return m.consumeCleanupTasksFn(ctx, handler)
	}
	return nil
}

func (m *mockMessageQueue) Close() error {
	return nil
}

// cleanupCall records one ObjectCleaner.Cleanup invocation.
type cleanupCall struct {
	reason  string
	videoID int64
	keys    []string
}

// recordingCleaner captures cleanup requests instead of deleting anything.
type recordingCleaner struct {
	mu    sync.Mutex
	calls []cleanupCall
}

func (r *recordingCleaner) Cleanup(ctx context.Context, reason string, videoID int64, keys ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cleanupCall{reason: reason, videoID: videoID, keys: keys})
}

// keys returns every key passed to Cleanup, in call order.
func (r *recordingCleaner) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.calls {
		out = append(out, c.keys...)
	}
	return out
}
