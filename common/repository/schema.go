package repository

import (
	"context"
	"fmt"

	"github.com/helixbio/drshub/common/db"
)

// schemaDDL defines the object_records table. The unique constraint on
// external_id is what makes concurrent duplicate registrations impossible.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS object_records (
	id UUID PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	md5_checksum TEXT NOT NULL,
	size BIGINT NOT NULL CHECK (size >= 0),
	registration_date TIMESTAMPTZ NOT NULL
);
`

// ApplySchema creates the metadata tables if they do not exist. Intended as
// a bootstrap DB init hook.
func ApplySchema(ctx context.Context, database *db.DB) error {
	if _, err := database.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
