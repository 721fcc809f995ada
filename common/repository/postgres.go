package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helixbio/drshub/common/db"
	"github.com/helixbio/drshub/common/models"
)

// uniqueViolation is the Postgres error code for unique constraint
// violations.
const uniqueViolation = "23505"

// PostgresObjectStore implements ObjectStore on Postgres.
type PostgresObjectStore struct {
	db *db.DB
}

// NewPostgresObjectStore creates a Postgres-backed object store.
func NewPostgresObjectStore(db *db.DB) *PostgresObjectStore {
	return &PostgresObjectStore{db: db}
}

// Get returns the record with the given external id.
func (r *PostgresObjectStore) Get(ctx context.Context, externalID string) (*models.ObjectRecord, error) {
	query := `
		SELECT id, external_id, md5_checksum, size, registration_date
		FROM object_records
		WHERE external_id = $1
	`

	record := &models.ObjectRecord{}
	err := r.db.QueryRow(ctx, query, externalID).Scan(
		&record.ID,
		&record.ExternalID,
		&record.MD5Checksum,
		&record.Size,
		&record.RegistrationDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("get object record %s: %w", externalID, err)
	}

	return record, nil
}

// Register creates a new record. The insert and its uniqueness check run in
// one transaction; the unique constraint on external_id closes the window
// where two concurrent registrations could both succeed.
func (r *PostgresObjectStore) Register(ctx context.Context, initial *models.ObjectRecord) error {
	initial.ID = uuid.New()
	initial.RegistrationDate = time.Now().UTC()

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO object_records (id, external_id, md5_checksum, size, registration_date)
			VALUES ($1, $2, $3, $4, $5)
		`

		_, err := tx.Exec(ctx, query,
			initial.ID,
			initial.ExternalID,
			initial.MD5Checksum,
			initial.Size,
			initial.RegistrationDate,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s", ErrAlreadyExists, initial.ExternalID)
			}
			return fmt.Errorf("register object record %s: %w", initial.ExternalID, err)
		}

		return nil
	})
}

// UpdateChecksum overwrites the checksum of an existing record.
func (r *PostgresObjectStore) UpdateChecksum(ctx context.Context, externalID, checksum string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE object_records
			SET md5_checksum = $2
			WHERE external_id = $1
		`

		tag, err := tx.Exec(ctx, query, externalID, checksum)
		if err != nil {
			return fmt.Errorf("update checksum for %s: %w", externalID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, externalID)
		}

		return nil
	})
}

// Unregister deletes the record with the given external id.
func (r *PostgresObjectStore) Unregister(ctx context.Context, externalID string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `DELETE FROM object_records WHERE external_id = $1`

		tag, err := tx.Exec(ctx, query, externalID)
		if err != nil {
			return fmt.Errorf("unregister object record %s: %w", externalID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, externalID)
		}

		return nil
	})
}

// Exists reports whether a record with the external id exists.
func (r *PostgresObjectStore) Exists(ctx context.Context, externalID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM object_records WHERE external_id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, externalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check object record %s: %w", externalID, err)
	}

	return exists, nil
}
