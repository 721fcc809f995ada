package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixbio/drshub/common/config"
	"github.com/helixbio/drshub/common/core"
	"github.com/helixbio/drshub/common/logger"
	"github.com/helixbio/drshub/common/models"
	"github.com/helixbio/drshub/common/repository"
	"github.com/helixbio/drshub/common/storage"
)

// noopPublisher satisfies core.EventPublisher for handler tests
type noopPublisher struct{}

func (noopPublisher) PublishStageRequest(ctx context.Context, record *models.ObjectRecord) error {
	return nil
}

func (noopPublisher) PublishObjectRegistered(ctx context.Context, record *models.ObjectRecord) error {
	return nil
}

func newTestHandler(t *testing.T) (*ObjectHandler, *repository.MemoryObjectStore, *storage.MemoryStorage) {
	t.Helper()

	cfg := &config.Config{
		Service: config.ServiceConfig{DRSSelfURL: "drs://drshub.test"},
		Storage: config.StorageConfig{OutboxBucket: "outbox", PresignTTL: time.Hour},
	}
	store := repository.NewMemoryObjectStore()
	objectStorage := storage.NewMemoryStorage()
	log := logger.New("error", "text")

	engine := core.NewEngine(store, objectStorage, noopPublisher{}, cfg, log)
	return NewObjectHandler(engine, log), store, objectStorage
}

func getObject(t *testing.T, handler *ObjectHandler, externalID string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/objects/:object_id")
	c.SetParamNames("object_id")
	c.SetParamValues(externalID)

	err := handler.GetObject(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestGetObject_NotFound(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := getObject(t, handler, "unknown")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetObject_Pending(t *testing.T) {
	handler, store, _ := newTestHandler(t)
	require.NoError(t, store.Register(context.Background(), &models.ObjectRecord{
		ExternalID:  "myfile-0",
		MD5Checksum: "abc123",
		Size:        1000,
	}))

	rec := getObject(t, handler, "myfile-0")

	assert.Equal(t, http.StatusAccepted, rec.Code, "pending must not look like not-found")

	var body stagingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "staging", body.Status)
	assert.Equal(t, "myfile-0", body.ExternalID)
}

func TestGetObject_Staged(t *testing.T) {
	handler, store, objectStorage := newTestHandler(t)
	require.NoError(t, store.Register(context.Background(), &models.ObjectRecord{
		ExternalID:  "myfile-0",
		MD5Checksum: "abc123",
		Size:        1000,
	}))
	objectStorage.Put("outbox", "myfile-0", []byte("bytes"))

	rec := getObject(t, handler, "myfile-0")

	require.Equal(t, http.StatusOK, rec.Code)

	var descriptor models.DrsObject
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &descriptor))
	assert.Equal(t, "myfile-0", descriptor.ID)
	assert.Equal(t, "drs://drshub.test/myfile-0", descriptor.SelfURI)
	assert.Equal(t, int64(1000), descriptor.Size)
	require.Len(t, descriptor.Checksums, 1)
	assert.Equal(t, "abc123", descriptor.Checksums[0].Checksum)
}

func TestGetObject_InvalidID(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := getObject(t, handler, "not a valid key")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
