package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixbio/drshub/common/config"
	"github.com/helixbio/drshub/common/events"
	"github.com/helixbio/drshub/common/logger"
	"github.com/helixbio/drshub/common/models"
	"github.com/helixbio/drshub/common/repository"
	"github.com/helixbio/drshub/common/storage"
)

// CapturePublisher records published events for assertions
type CapturePublisher struct {
	mu            sync.Mutex
	StageRequests []string
	Registered    []string
}

func (p *CapturePublisher) PublishStageRequest(ctx context.Context, record *models.ObjectRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StageRequests = append(p.StageRequests, record.ExternalID)
	return nil
}

func (p *CapturePublisher) PublishObjectRegistered(ctx context.Context, record *models.ObjectRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Registered = append(p.Registered, record.ExternalID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{
			Name:       "drshub-test",
			DRSSelfURL: "drs://drshub.test",
		},
		Storage: config.StorageConfig{
			OutboxBucket: "outbox",
			PresignTTL:   time.Hour,
		},
	}
}

func newTestEngine(t *testing.T) (*Engine, *repository.MemoryObjectStore, *storage.MemoryStorage, *CapturePublisher) {
	t.Helper()

	store := repository.NewMemoryObjectStore()
	objectStorage := storage.NewMemoryStorage()
	publisher := &CapturePublisher{}
	log := logger.New("error", "text")

	engine := NewEngine(store, objectStorage, publisher, testConfig(), log)
	return engine, store, objectStorage, publisher
}

func register(t *testing.T, store *repository.MemoryObjectStore, externalID, checksum string, size int64) {
	t.Helper()

	err := store.Register(context.Background(), &models.ObjectRecord{
		ExternalID:  externalID,
		MD5Checksum: checksum,
		Size:        size,
	})
	require.NoError(t, err)
}

func TestServe_UnknownObject(t *testing.T) {
	engine, _, _, publisher := newTestEngine(t)

	descriptor, err := engine.Serve(context.Background(), "never-registered")

	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.Nil(t, descriptor)
	assert.Empty(t, publisher.StageRequests)
}

func TestServe_RegisteredNotStaged(t *testing.T) {
	engine, store, _, publisher := newTestEngine(t)
	register(t, store, "myfile-1", "abc123", 1000)

	descriptor, err := engine.Serve(context.Background(), "myfile-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotStaged))
	assert.False(t, errors.Is(err, repository.ErrNotFound), "pending must be distinguishable from not-found")
	assert.Nil(t, descriptor)
	require.Len(t, publisher.StageRequests, 1, "exactly one stage request per serve call")
	assert.Equal(t, "myfile-1", publisher.StageRequests[0])
}

func TestServe_Staged(t *testing.T) {
	engine, store, objectStorage, publisher := newTestEngine(t)
	register(t, store, "myfile-2", "abc123", 2048)
	objectStorage.Put("outbox", "myfile-2", []byte("content"))

	descriptor, err := engine.Serve(context.Background(), "myfile-2")

	require.NoError(t, err)
	require.NotNil(t, descriptor)
	assert.Equal(t, "myfile-2", descriptor.ID)
	assert.Equal(t, "drs://drshub.test/myfile-2", descriptor.SelfURI)
	assert.Equal(t, int64(2048), descriptor.Size)
	require.Len(t, descriptor.Checksums, 1)
	assert.Equal(t, "abc123", descriptor.Checksums[0].Checksum)
	assert.Equal(t, "md5", descriptor.Checksums[0].Type)
	require.Len(t, descriptor.AccessMethods, 1)
	assert.Equal(t, "s3", descriptor.AccessMethods[0].Type)
	assert.NotEmpty(t, descriptor.AccessMethods[0].AccessURL.URL)
	assert.Empty(t, publisher.StageRequests, "no stage request on the success path")
}

func TestHandleStaged_UnknownObject(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	// Absent from both store and bucket: metadata absence wins.
	err := engine.HandleStaged(context.Background(), &events.FileStagedEvent{
		ExternalID:  "ghost",
		MD5Checksum: "abc123",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.False(t, errors.Is(err, storage.ErrObjectNotFound))
}

func TestHandleStaged_BlobMissing(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)
	register(t, store, "myfile-3", "original", 10)

	err := engine.HandleStaged(context.Background(), &events.FileStagedEvent{
		ExternalID:  "myfile-3",
		MD5Checksum: "corrected",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrObjectNotFound))

	record, getErr := store.Get(context.Background(), "myfile-3")
	require.NoError(t, getErr)
	assert.Equal(t, "original", record.MD5Checksum, "checksum must stay unchanged on failure")
}

func TestHandleStaged_ReconcilesChecksum(t *testing.T) {
	engine, store, objectStorage, _ := newTestEngine(t)
	register(t, store, "myfile-4", "stale", 10)
	objectStorage.Put("outbox", "myfile-4", []byte("content"))

	err := engine.HandleStaged(context.Background(), &events.FileStagedEvent{
		ExternalID:  "myfile-4",
		MD5Checksum: "fresh",
	})

	require.NoError(t, err)

	record, getErr := store.Get(context.Background(), "myfile-4")
	require.NoError(t, getErr)
	assert.Equal(t, "fresh", record.MD5Checksum)
}

func TestHandleRegistered(t *testing.T) {
	engine, store, _, publisher := newTestEngine(t)

	err := engine.HandleRegistered(context.Background(), &events.FileRegisteredEvent{
		ExternalID:  "myfile-5",
		MD5Checksum: "abc123",
		Size:        500,
		Timestamp:   time.Now().UTC(),
	})

	require.NoError(t, err)

	record, getErr := store.Get(context.Background(), "myfile-5")
	require.NoError(t, getErr)
	assert.Equal(t, "abc123", record.MD5Checksum)
	assert.Equal(t, int64(500), record.Size)
	assert.NotZero(t, record.ID)
	assert.False(t, record.RegistrationDate.IsZero())

	require.Len(t, publisher.Registered, 1)
	assert.Equal(t, "myfile-5", publisher.Registered[0])
}

func TestHandleRegistered_Duplicate(t *testing.T) {
	engine, store, _, publisher := newTestEngine(t)

	event := &events.FileRegisteredEvent{
		ExternalID:  "myfile-6",
		MD5Checksum: "abc123",
		Size:        500,
	}

	require.NoError(t, engine.HandleRegistered(context.Background(), event))
	before, err := store.Get(context.Background(), "myfile-6")
	require.NoError(t, err)

	err = engine.HandleRegistered(context.Background(), event)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrAlreadyExists))

	after, getErr := store.Get(context.Background(), "myfile-6")
	require.NoError(t, getErr)
	assert.Equal(t, before, after, "failed duplicate must not mutate the store")
	assert.Len(t, publisher.Registered, 1, "no announcement for the failed duplicate")
}

func TestHandleRegistered_InvalidExternalID(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)

	err := engine.HandleRegistered(context.Background(), &events.FileRegisteredEvent{
		ExternalID:  "bad/key with spaces",
		MD5Checksum: "abc123",
		Size:        1,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidExternalID))

	exists, existsErr := store.Exists(context.Background(), "bad/key with spaces")
	require.NoError(t, existsErr)
	assert.False(t, exists)
}

func TestConcurrentRegistration(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = engine.HandleRegistered(context.Background(), &events.FileRegisteredEvent{
				ExternalID:  "contended",
				MD5Checksum: "abc123",
				Size:        100,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, repository.ErrAlreadyExists))
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one registration wins")

	record, err := store.Get(context.Background(), "contended")
	require.NoError(t, err)
	assert.Equal(t, "contended", record.ExternalID)
}

func TestStagingLifecycle(t *testing.T) {
	engine, _, objectStorage, publisher := newTestEngine(t)
	ctx := context.Background()

	// Register via the event path.
	require.NoError(t, engine.HandleRegistered(ctx, &events.FileRegisteredEvent{
		ExternalID:  "myfile-0",
		MD5Checksum: "abc123",
		Size:        1000,
	}))

	// First lookup: pending, one stage request emitted.
	_, err := engine.Serve(ctx, "myfile-0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotStaged))
	require.Len(t, publisher.StageRequests, 1)
	assert.Equal(t, "myfile-0", publisher.StageRequests[0])

	// Staging worker places the blob and reports completion.
	objectStorage.Put("outbox", "myfile-0", []byte("bytes"))
	require.NoError(t, engine.HandleStaged(ctx, &events.FileStagedEvent{
		ExternalID:  "myfile-0",
		MD5Checksum: "abc123",
	}))

	// Second lookup: servable descriptor.
	descriptor, err := engine.Serve(ctx, "myfile-0")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), descriptor.Size)
	assert.Equal(t, "abc123", descriptor.Checksums[0].Checksum)
	assert.Len(t, publisher.StageRequests, 1, "no further stage requests once staged")
}
