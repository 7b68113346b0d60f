package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"yt/internal/slogutil"
)

func openTestCache(t *testing.T) *BlobCache {
	t.Helper()
	c, err := OpenBlobCache(filepath.Join(t.TempDir(), ".yt", "cache.db"), slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("OpenBlobCache() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestBlobCache_PutGet(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "abc", "issues/x"); ok {
		t.Fatal("empty cache should miss")
	}

	content := []byte(strings.Repeat("title: compressible\n", 100))
	if err := c.Put(ctx, "abc", "issues/x", content); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get(ctx, "abc", "issues/x")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Get() returned %d bytes, want %d", len(got), len(content))
	}

	if _, ok := c.Get(ctx, "abc", "issues/y"); ok {
		t.Error("different path should miss")
	}
	if _, ok := c.Get(ctx, "def", "issues/x"); ok {
		t.Error("different revision should miss")
	}

	entries, size, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if entries != 1 || size != int64(len(content)) {
		t.Errorf("Stats() = %d, %d; want 1, %d", entries, size, len(content))
	}
}

func TestBlobCache_EmptyContent(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "r", "empty", []byte{}); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get(ctx, "r", "empty")
	if !ok || len(got) != 0 {
		t.Errorf("Get(empty) = %q, %v", got, ok)
	}
}

func TestBlobCache_CorruptEntryIsMiss(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "r", "p", []byte("original")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.db.conn.Exec("UPDATE revision_blobs SET checksum = ?", []byte("bogus")); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "r", "p"); ok {
		t.Error("entry with bad checksum should read as a miss")
	}

	if _, err := c.db.conn.Exec("UPDATE revision_blobs SET data = ?", []byte("not zstd")); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "r", "p"); ok {
		t.Error("undecodable entry should read as a miss")
	}

	// Put repairs it
	if err := c.Put(ctx, "r", "p", []byte("original")); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.Get(ctx, "r", "p"); !ok || string(got) != "original" {
		t.Errorf("Get after repair = %q, %v", got, ok)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	logger := slogutil.NewDiscardLogger()

	first, err := OpenBlobCache(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Put(context.Background(), "r", "p", []byte("kept")); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := OpenBlobCache(path, logger)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	if got, ok := second.Get(context.Background(), "r", "p"); !ok || string(got) != "kept" {
		t.Errorf("Get after reopen = %q, %v", got, ok)
	}
	if v, err := second.db.getSchemaVersion(); err != nil || v != currentSchemaVersion {
		t.Errorf("schema version = %d, %v", v, err)
	}
}

func TestRunMigrations_RebuildsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	logger := slogutil.NewDiscardLogger()

	c, err := OpenBlobCache(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.db.conn.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	c.Close()

	db, err := Open(path, logger)
	if err != nil {
		t.Fatalf("Open after version bump: %v", err)
	}
	defer db.Close()

	if v, _ := db.getSchemaVersion(); v != currentSchemaVersion {
		t.Errorf("version after migration = %d, want %d", v, currentSchemaVersion)
	}
}
