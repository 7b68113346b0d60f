package storage

import (
	"database/sql"
	"fmt"
)

// layout is the cache's DDL. The version lives in SQLite's user_version;
// a file at any other version is dropped and recreated.
var layout = []string{
	// revision_blobs holds file content keyed by (revision, path). data is
	// zstd compressed; checksum is the blake2b-256 of the uncompressed bytes.
	`CREATE TABLE revision_blobs (
		rev TEXT NOT NULL,
		path TEXT NOT NULL,
		data BLOB NOT NULL,
		checksum BLOB NOT NULL,
		size INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (rev, path)
	)`,
}

const currentSchemaVersion = 2

var tables = []string{"revision_blobs", "schema_version"}

func (db *DB) migrate() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		return nil
	}
	if version != 0 {
		db.logger.Info("Rebuilding revision cache", "from_version", version, "to_version", currentSchemaVersion)
	}

	return db.withTx(func(tx *sql.Tx) error {
		for _, t := range tables {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + t); err != nil {
				return err
			}
		}
		for _, ddl := range layout {
			if _, err := tx.Exec(ddl); err != nil {
				return fmt.Errorf("failed to create cache tables: %w", err)
			}
		}
		_, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion))
		return err
	})
}

func (db *DB) getSchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("PRAGMA user_version").Scan(&version)
	return version, err
}
