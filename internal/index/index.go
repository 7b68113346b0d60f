// Package index maintains the denormalized index file: one Schema-filtered
// projection per record plus the reserved skeleton entry.
package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"yt/internal/errors"
	"yt/internal/record"
)

// Index maps record ids to their projection. The reserved
// record.SchemaID entry holds the field set the projections use.
type Index map[string]record.Record

// FromMap converts a decoded index document. Entries whose value is not a
// mapping are dropped.
func FromMap(m map[string]interface{}) Index {
	idx := make(Index, len(m))
	for id, v := range m {
		switch entry := v.(type) {
		case map[string]interface{}:
			idx[id] = record.Record(entry)
		case record.Record:
			idx[id] = entry
		}
	}
	return idx
}

// Schema returns the projection schema stored under the skeleton entry, or
// fallback when the index carries none. A nil fallback projects nothing.
func (idx Index) Schema(fallback *record.Schema) *record.Schema {
	if s, ok := idx[record.SchemaID]; ok && len(s) > 0 {
		return record.SchemaFromMap(s)
	}
	if fallback == nil {
		return record.NewSchema()
	}
	return fallback
}

// IDs returns the record ids in sorted order, without the skeleton entry.
func (idx Index) IDs() []string {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		if id != record.SchemaID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// New returns an index holding only the skeleton entry.
func New(schema *record.Schema) Index {
	return Index{record.SchemaID: record.Record(schema.Map())}
}

// Load reads and decodes the index file.
func Load(path string) (Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.IOFailure, "failed to read index", err)
	}
	m, err := record.Decode(raw)
	if err != nil {
		return nil, errors.New(errors.UnparsableSnapshot, "failed to parse index", err)
	}
	return FromMap(m), nil
}

// Write replaces the index file with idx. The content goes to a temporary
// sibling first so readers never see a half-written file.
func Write(path string, idx Index) error {
	raw, err := record.Encode(map[string]record.Record(idx))
	if err != nil {
		return errors.New(errors.InternalError, "failed to encode index", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return errors.New(errors.IOFailure, "failed to write index", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.New(errors.IOFailure, "failed to write index", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.New(errors.IOFailure, "failed to write index", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.New(errors.IOFailure, "failed to write index", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.New(errors.IOFailure, "failed to write index", err)
	}
	return nil
}

// Synchronizer rewrites index entries from canonical records.
type Synchronizer struct {
	path        string
	lockDir     string
	lockTimeout time.Duration
	schema      *record.Schema
	logger      *slog.Logger
}

// NewSynchronizer manages the index file at path. Writers serialize on a
// lock file in lockDir. schema is used when the index has no skeleton entry.
func NewSynchronizer(path, lockDir string, lockTimeout time.Duration, schema *record.Schema, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		path:        path,
		lockDir:     lockDir,
		lockTimeout: lockTimeout,
		schema:      schema,
		logger:      logger,
	}
}

// Path returns the index file location.
func (s *Synchronizer) Path() string {
	return s.path
}

// Load reads the current index.
func (s *Synchronizer) Load() (Index, error) {
	return Load(s.path)
}

// Reindex sets the entry for id to the projection of rec.
func (s *Synchronizer) Reindex(ctx context.Context, id string, rec record.Record) error {
	return s.ReindexMany(ctx, map[string]record.Record{id: rec})
}

// ReindexMany projects every record in recs in a single read-modify-write.
func (s *Synchronizer) ReindexMany(ctx context.Context, recs map[string]record.Record) error {
	lock, err := AcquireLock(ctx, s.lockDir, s.lockTimeout)
	if err != nil {
		return err
	}
	defer lock.Release()

	idx, err := s.Load()
	if err != nil {
		return err
	}
	schema := idx.Schema(s.schema)
	for id, rec := range recs {
		idx[id] = schema.Project(rec)
	}
	if err := Write(s.path, idx); err != nil {
		return err
	}

	s.logger.Debug("Index updated", "records", len(recs), "path", s.path)
	return nil
}
