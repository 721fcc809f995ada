package repository

import (
	"context"
	"errors"

	"github.com/helixbio/drshub/common/models"
)

var (
	// ErrNotFound signals that no record with the requested external id
	// exists.
	ErrNotFound = errors.New("object record not found")

	// ErrAlreadyExists signals a duplicate registration. Registration is
	// strictly once-only per external id; a silent overwrite could mask a
	// checksum mismatch from a corrupted re-registration.
	ErrAlreadyExists = errors.New("object record already exists")
)

// ObjectStore is the metadata store for object records. Every mutation is
// atomic with its own existence pre-check, so concurrent registrations of
// the same external id cannot both succeed.
type ObjectStore interface {
	// Get returns the record with the given external id, or ErrNotFound.
	Get(ctx context.Context, externalID string) (*models.ObjectRecord, error)

	// Register creates a new record with a fresh internal id and the
	// current time as registration date. Fails with ErrAlreadyExists if the
	// external id is taken.
	Register(ctx context.Context, initial *models.ObjectRecord) error

	// UpdateChecksum overwrites the stored checksum in place, leaving the
	// registration date untouched. Fails with ErrNotFound if absent.
	UpdateChecksum(ctx context.Context, externalID, checksum string) error

	// Unregister deletes the record. Fails with ErrNotFound if absent.
	Unregister(ctx context.Context, externalID string) error

	// Exists reports whether a record with the external id exists, without
	// using errors for branching.
	Exists(ctx context.Context, externalID string) (bool, error)
}
