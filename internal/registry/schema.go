package registry

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

const createTableSQL = `
CREATE TABLE IF NOT EXISTS media_files (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id          INTEGER NOT NULL,
	inode              INTEGER NOT NULL,
	original_filepath  TEXT NOT NULL,
	original_filename  TEXT NOT NULL,
	file_size          INTEGER NOT NULL,
	status             TEXT NOT NULL,
	retry_count        INTEGER NOT NULL DEFAULT 0,
	tmdb_id            INTEGER,
	media_type         TEXT,
	llm_guess          TEXT,
	processed_data     TEXT,
	new_filepath       TEXT,
	error_message      TEXT,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL,
	UNIQUE (device_id, inode)
);
CREATE INDEX IF NOT EXISTS idx_media_files_status ON media_files (status);
CREATE INDEX IF NOT EXISTS idx_media_files_created_at ON media_files (created_at);
CREATE INDEX IF NOT EXISTS idx_media_files_original_filename ON media_files (original_filename);
`

// migrate applies the schema, guarded by PRAGMA user_version so re-running it
// against an already-migrated database is a no-op.
func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&current); err != nil {
		return fmt.Errorf("registry: read schema version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("registry: begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(createTableSQL); err != nil {
		return fmt.Errorf("registry: create schema: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("registry: set schema version: %w", err)
	}
	return tx.Commit()
}
