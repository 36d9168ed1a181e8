package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the tables used by the Postgres repositories
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS document_frequencies (
	key   TEXT PRIMARY KEY,
	count INTEGER NOT NULL CHECK (count >= 0)
);

CREATE TABLE IF NOT EXISTS gazetteer_entries (
	key TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS models (
	id           UUID PRIMARY KEY,
	variant      TEXT NOT NULL,
	algorithm    TEXT NOT NULL,
	num_features INTEGER NOT NULL,
	artifact     BYTEA NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS models_variant_created_at ON models (variant, created_at DESC);

CREATE TABLE IF NOT EXISTS training_examples (
	id          UUID PRIMARY KEY,
	variant     TEXT NOT NULL,
	document_id TEXT NOT NULL,
	key         TEXT NOT NULL,
	features    vector NOT NULL,
	label       SMALLINT NOT NULL CHECK (label IN (0, 1)),
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS training_examples_variant ON training_examples (variant);
`

// Migrate applies Schema
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
