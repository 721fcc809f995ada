package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helixbio/drshub/common/models"
)

// MemoryObjectStore is an in-memory ObjectStore implementation for tests.
// A single mutex gives it the same all-or-nothing mutation semantics as the
// transactional Postgres store.
type MemoryObjectStore struct {
	mu      sync.Mutex
	records map[string]models.ObjectRecord
}

// NewMemoryObjectStore creates an empty in-memory store.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{
		records: make(map[string]models.ObjectRecord),
	}
}

// Get returns the record with the given external id.
func (r *MemoryObjectStore) Get(ctx context.Context, externalID string) (*models.ObjectRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, externalID)
	}

	copied := record
	return &copied, nil
}

// Register creates a new record, failing on duplicate external ids.
func (r *MemoryObjectStore) Register(ctx context.Context, initial *models.ObjectRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[initial.ExternalID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, initial.ExternalID)
	}

	initial.ID = uuid.New()
	initial.RegistrationDate = time.Now().UTC()
	r.records[initial.ExternalID] = *initial

	return nil
}

// UpdateChecksum overwrites the checksum of an existing record.
func (r *MemoryObjectStore) UpdateChecksum(ctx context.Context, externalID, checksum string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[externalID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, externalID)
	}

	record.MD5Checksum = checksum
	r.records[externalID] = record

	return nil
}

// Unregister deletes the record with the given external id.
func (r *MemoryObjectStore) Unregister(ctx context.Context, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[externalID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, externalID)
	}

	delete(r.records, externalID)
	return nil
}

// Exists reports whether a record with the external id exists.
func (r *MemoryObjectStore) Exists(ctx context.Context, externalID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.records[externalID]
	return ok, nil
}
