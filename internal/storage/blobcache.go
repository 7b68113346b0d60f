package storage

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// BlobCache maps (revision, path) to file content. Entries are immutable;
// a corrupt entry reads as a miss and is overwritten on the next Put.
type BlobCache struct {
	db     *DB
	logger *slog.Logger
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

// NewBlobCache wraps db.
func NewBlobCache(db *DB, logger *slog.Logger) (*BlobCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &BlobCache{db: db, logger: logger, enc: enc, dec: dec}, nil
}

// OpenBlobCache opens the database at path and wraps it.
func OpenBlobCache(path string, logger *slog.Logger) (*BlobCache, error) {
	db, err := Open(path, logger)
	if err != nil {
		return nil, err
	}
	c, err := NewBlobCache(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Get returns the cached content of path at rev.
func (c *BlobCache) Get(ctx context.Context, rev, path string) ([]byte, bool) {
	var compressed, checksum []byte
	err := c.db.conn.QueryRowContext(ctx,
		"SELECT data, checksum FROM revision_blobs WHERE rev = ? AND path = ?",
		rev, path,
	).Scan(&compressed, &checksum)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Revision cache lookup failed", "rev", rev, "path", path, "error", err)
		return nil, false
	}

	data, err := c.dec.DecodeAll(compressed, nil)
	if err != nil {
		c.logger.Warn("Discarding undecodable cache entry", "rev", rev, "path", path, "error", err)
		return nil, false
	}
	sum := blake2b.Sum256(data)
	if !bytes.Equal(sum[:], checksum) {
		c.logger.Warn("Discarding cache entry with bad checksum", "rev", rev, "path", path)
		return nil, false
	}
	return data, true
}

// Put stores content for path at rev, replacing any previous entry.
func (c *BlobCache) Put(ctx context.Context, rev, path string, data []byte) error {
	sum := blake2b.Sum256(data)
	compressed := c.enc.EncodeAll(data, nil)

	_, err := c.db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO revision_blobs (rev, path, data, checksum, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rev, path, compressed, sum[:], len(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store revision blob: %w", err)
	}
	return nil
}

// Stats reports the number of entries and their uncompressed size.
func (c *BlobCache) Stats(ctx context.Context) (entries int, size int64, err error) {
	err = c.db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(size), 0) FROM revision_blobs",
	).Scan(&entries, &size)
	return entries, size, err
}

// Close releases the codec and the database.
func (c *BlobCache) Close() error {
	c.enc.Close()
	c.dec.Close()
	return c.db.Close()
}
