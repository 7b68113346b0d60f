// Package store owns the record folder: the schema files, one canonical
// file per record, and the index kept beside them.
package store

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"yt/internal/config"
	"yt/internal/errors"
	"yt/internal/history"
	"yt/internal/identity"
	"yt/internal/index"
	"yt/internal/paths"
	"yt/internal/record"
)

// Backend is the version control capability the store needs.
type Backend interface {
	history.Source
	identity.Committer
	Add(ctx context.Context, paths ...string) error
	ModifiedOrAdded(ctx context.Context) ([]string, error)
	ExcludeLocally(ctx context.Context, pattern string) error
}

// Store is a handle on one record folder. It is meant to live for a single
// invocation; schema files are read at most once per handle.
type Store struct {
	root    string
	cfg     *config.Config
	folder  string
	backend Backend
	ids     identity.Provider
	logger  *slog.Logger

	schemaOnce   sync.Once
	schema       *record.Schema
	schemaErr    error
	creationOnce sync.Once
	creation     *record.Schema
	creationErr  error
}

// Option configures a Store.
type Option func(*Store)

// WithIdentity overrides the identity provider chosen from config.
func WithIdentity(p identity.Provider) Option {
	return func(s *Store) {
		s.ids = p
	}
}

// Open returns a handle on an initialized record folder.
func Open(root string, cfg *config.Config, backend Backend, logger *slog.Logger, opts ...Option) (*Store, error) {
	s := newStore(root, cfg, backend, logger, opts...)

	for _, name := range []string{record.SchemaID, cfg.IndexFile} {
		if _, err := os.Stat(s.abs(name)); err != nil {
			return nil, errors.New(errors.NoRecordSchema, "record folder is not initialized", err).
				WithDetails(map[string]string{"missing": paths.RecordPath(s.folder, name)})
		}
	}
	return s, nil
}

func newStore(root string, cfg *config.Config, backend Backend, logger *slog.Logger, opts ...Option) *Store {
	folder := paths.NormalizePath(cfg.DBFolder)
	s := &Store{
		root:    root,
		cfg:     cfg,
		folder:  folder,
		backend: backend,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = identity.ForConfig(cfg, backend)
	}
	return s
}

// Init creates the schema files and an empty index, stages them, and keeps
// the local state directory out of version control.
func Init(ctx context.Context, root string, cfg *config.Config, backend Backend, logger *slog.Logger, schema, creation, indexSchema *record.Schema, opts ...Option) (*Store, error) {
	s := newStore(root, cfg, backend, logger, opts...)

	if _, err := os.Stat(s.abs(record.SchemaID)); err == nil {
		return nil, errors.New(errors.InvalidInput, "record folder is already initialized", nil).
			WithDetails(map[string]string{"folder": s.folder})
	}
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(s.folder)), 0755); err != nil {
		return nil, errors.New(errors.IOFailure, "failed to create record folder", err)
	}

	if err := s.writeDoc(record.SchemaID, schema); err != nil {
		return nil, err
	}
	if err := s.writeDoc(record.CreationSchemaID, creation); err != nil {
		return nil, err
	}
	if err := index.Write(s.abs(cfg.IndexFile), index.New(indexSchema)); err != nil {
		return nil, err
	}
	staged := []string{s.rel(record.SchemaID), s.rel(record.CreationSchemaID), s.rel(cfg.IndexFile)}

	if err := backend.Add(ctx, staged...); err != nil {
		return nil, err
	}
	if err := backend.ExcludeLocally(ctx, "/"+config.Dir+"/"); err != nil {
		logger.Warn("Could not exclude state directory", "error", err)
	}

	logger.Info("Initialized record folder", "folder", s.folder, "fields", schema.Len())
	return s, nil
}

// Folder returns the repo-relative record folder.
func (s *Store) Folder() string {
	return s.folder
}

// Root returns the working tree root.
func (s *Store) Root() string {
	return s.root
}

// RecordPath returns the repo-relative path of a record file.
func (s *Store) RecordPath(id string) string {
	return s.rel(id)
}

// IndexPath returns the repo-relative path of the index file.
func (s *Store) IndexPath() string {
	return s.rel(s.cfg.IndexFile)
}

// Source exposes the history backend.
func (s *Store) Source() history.Source {
	return s.backend
}

// Schema returns the full field set.
func (s *Store) Schema() (*record.Schema, error) {
	s.schemaOnce.Do(func() {
		s.schema, s.schemaErr = s.readSchema(record.SchemaID)
		if s.schemaErr != nil && stderrors.Is(s.schemaErr, fs.ErrNotExist) {
			s.schemaErr = errors.New(errors.NoRecordSchema, "schema file is missing", s.schemaErr)
		}
	})
	return s.schema, s.schemaErr
}

// CreationSchema returns the fields required by Create. A folder without a
// creation schema requires nothing.
func (s *Store) CreationSchema() (*record.Schema, error) {
	s.creationOnce.Do(func() {
		for _, name := range []string{record.CreationSchemaID, record.LegacyCreationSchemaID} {
			sch, err := s.readSchema(name)
			if err == nil {
				s.creation = sch
				return
			}
			if !stderrors.Is(err, fs.ErrNotExist) {
				s.creationErr = err
				return
			}
		}
		s.logger.Debug("No creation schema, nothing is required at creation")
		s.creation = record.NewSchema()
	})
	return s.creation, s.creationErr
}

func (s *Store) readSchema(name string) (*record.Schema, error) {
	raw, err := os.ReadFile(s.abs(name))
	if err != nil {
		return nil, errors.New(errors.IOFailure, "failed to read "+s.rel(name), err)
	}
	sch, err := record.ParseSchema(raw)
	if err != nil {
		return nil, errors.New(errors.UnparsableSnapshot, "failed to parse "+s.rel(name), err)
	}
	return sch, nil
}

// Index returns the synchronizer for the index file. Entries are projected
// onto the index's own skeleton, or onto the full schema when it has none.
func (s *Store) Index() (*index.Synchronizer, error) {
	schema, err := s.Schema()
	if err != nil {
		return nil, err
	}
	return index.NewSynchronizer(
		s.abs(s.cfg.IndexFile),
		filepath.Join(s.root, config.Dir),
		time.Duration(s.cfg.Index.LockTimeoutMs)*time.Millisecond,
		schema,
		s.logger,
	), nil
}

func (s *Store) rel(name string) string {
	return paths.RecordPath(s.folder, name)
}

func (s *Store) abs(name string) string {
	return paths.JoinRepoPath(s.root, s.rel(name))
}

func (s *Store) writeDoc(name string, doc interface{}) error {
	raw, err := record.Encode(doc)
	if err != nil {
		return errors.New(errors.InternalError, "failed to encode "+name, err)
	}
	if err := os.WriteFile(s.abs(name), raw, 0644); err != nil {
		return errors.New(errors.IOFailure, "failed to write "+s.rel(name), err)
	}
	return nil
}
