// Package storage keeps the local, untracked SQLite cache under .yt/.
package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB is the cache database. Everything in it can be rebuilt from git.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens or creates the cache at dbPath and brings its layout up to
// date, creating the parent directory as needed.
func Open(dbPath string, logger *slog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	// concurrent yt invocations share the file; writers wait instead of failing
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, logger: logger.With("cache", dbPath)}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare cache: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// withTx runs fn in a transaction and rolls back when it fails.
func (db *DB) withTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Warn("Cache rollback failed", "error", err, "rollback_error", rbErr)
		}
		return err
	}
	return tx.Commit()
}
