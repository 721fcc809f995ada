package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixbio/drshub/common/models"
)

func TestMemoryObjectStore_RegisterAndGet(t *testing.T) {
	store := NewMemoryObjectStore()
	ctx := context.Background()

	initial := &models.ObjectRecord{
		ExternalID:  "myfile-0",
		MD5Checksum: "abc123",
		Size:        1000,
	}
	require.NoError(t, store.Register(ctx, initial))
	assert.NotZero(t, initial.ID, "register assigns an internal id")
	assert.False(t, initial.RegistrationDate.IsZero(), "register sets the registration date")

	record, err := store.Get(ctx, "myfile-0")
	require.NoError(t, err)
	assert.Equal(t, "abc123", record.MD5Checksum)
	assert.Equal(t, int64(1000), record.Size)
}

func TestMemoryObjectStore_GetMissing(t *testing.T) {
	store := NewMemoryObjectStore()

	_, err := store.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryObjectStore_DuplicateRegistration(t *testing.T) {
	store := NewMemoryObjectStore()
	ctx := context.Background()

	first := &models.ObjectRecord{ExternalID: "dup", MD5Checksum: "a", Size: 1}
	require.NoError(t, store.Register(ctx, first))

	second := &models.ObjectRecord{ExternalID: "dup", MD5Checksum: "b", Size: 2}
	err := store.Register(ctx, second)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyExists))

	record, getErr := store.Get(ctx, "dup")
	require.NoError(t, getErr)
	assert.Equal(t, "a", record.MD5Checksum, "failed registration must not mutate the store")
	assert.Equal(t, first.ID, record.ID)
}

func TestMemoryObjectStore_UpdateChecksum(t *testing.T) {
	store := NewMemoryObjectStore()
	ctx := context.Background()

	initial := &models.ObjectRecord{ExternalID: "upd", MD5Checksum: "old", Size: 1}
	require.NoError(t, store.Register(ctx, initial))

	require.NoError(t, store.UpdateChecksum(ctx, "upd", "new"))

	record, err := store.Get(ctx, "upd")
	require.NoError(t, err)
	assert.Equal(t, "new", record.MD5Checksum)
	assert.Equal(t, initial.RegistrationDate, record.RegistrationDate, "registration date never mutates")

	err = store.UpdateChecksum(ctx, "missing", "x")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryObjectStore_Unregister(t *testing.T) {
	store := NewMemoryObjectStore()
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, &models.ObjectRecord{ExternalID: "gone", MD5Checksum: "a", Size: 1}))
	require.NoError(t, store.Unregister(ctx, "gone"))

	exists, err := store.Exists(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.Unregister(ctx, "gone")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryObjectStore_ConcurrentRegister(t *testing.T) {
	store := NewMemoryObjectStore()

	const workers = 32
	var wg sync.WaitGroup
	var successes int32
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Register(context.Background(), &models.ObjectRecord{
				ExternalID:  "race",
				MD5Checksum: "abc",
				Size:        1,
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.True(t, errors.Is(err, ErrAlreadyExists))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
}
