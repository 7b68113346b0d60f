package store

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"sort"
	"strings"

	"yt/internal/errors"
	"yt/internal/history"
	"yt/internal/identity"
	"yt/internal/record"
)

// Create stores a new record and returns its id. fields outside the schema
// are ignored. Every creation schema field must be supplied and non-empty.
//
// A non-nil error together with a non-empty id means the record was written
// but a later step failed; the error is INDEX_STALE when only the index is
// behind.
func (s *Store) Create(ctx context.Context, fields map[string]interface{}) (string, error) {
	schema, err := s.Schema()
	if err != nil {
		return "", err
	}
	creation, err := s.CreationSchema()
	if err != nil {
		return "", err
	}

	var missing []string
	for _, name := range creation.Names() {
		if isBlank(fields[name]) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", errors.New(errors.InvalidInput, "missing required fields: "+strings.Join(missing, ", "), nil).
			WithDetails(map[string]interface{}{"missing": missing})
	}

	rec := make(record.Record, schema.Len())
	for _, f := range schema.Fields() {
		v, ok := fields[f.Name]
		switch {
		case ok && v != nil:
			rec[f.Name] = v
		case f.Name == record.FieldStatus:
			rec[f.Name] = record.StatusOpen
		case f.Name == record.FieldComment:
			rec[f.Name] = record.OpeningComment
		default:
			rec[f.Name] = f.Default
		}
	}
	coerceNulls(rec)

	id, err := s.ids.NewID(ctx, rec.Title())
	if err != nil {
		return "", err
	}
	if err := s.writeDoc(id, rec); err != nil {
		return "", err
	}
	if err := s.backend.Add(ctx, s.rel(id)); err != nil {
		return id, err
	}
	s.logger.Info("Created record", "id", id, "title", rec.Title())

	return id, s.reindex(ctx, id, rec)
}

// Read returns the record's snapshots, newest first. Without history only
// the working tree snapshot is returned.
func (s *Store) Read(ctx context.Context, id string, withHistory bool) ([]*history.Snapshot, error) {
	if err := s.checkID(id); err != nil {
		return nil, err
	}
	path := s.rel(id)
	raw, err := s.backend.Current(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New(errors.RecordNotFound, "no record "+id, err)
		}
		return nil, errors.New(errors.IOFailure, "failed to read "+path, err)
	}
	if !withHistory {
		data, err := record.Decode(raw)
		if err != nil {
			return nil, errors.New(errors.UnparsableSnapshot, "failed to parse "+path, err)
		}
		return []*history.Snapshot{{Data: data, Working: true}}, nil
	}

	w, err := history.Walk(ctx, s.backend, path, record.Decode, s.logger)
	if err != nil {
		return nil, err
	}
	snaps, err := history.Collect(w)
	if err != nil {
		s.logger.Warn("History walk ended early", "id", id, "error", err)
	}
	if n := w.Skipped(); n > 0 {
		s.logger.Debug("Skipped unparsable revisions", "id", id, "count", n)
	}
	return snaps, nil
}

// Get returns the current content of a record.
func (s *Store) Get(ctx context.Context, id string) (record.Record, error) {
	snaps, err := s.Read(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return record.Record(snaps[0].Data), nil
}

// Update merges fields over the stored record. For each schema field the
// supplied value wins, then the stored one, then the schema default; nulls
// become empty strings.
func (s *Store) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := s.checkID(id); err != nil {
		return err
	}
	schema, err := s.Schema()
	if err != nil {
		return err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	rec := make(record.Record, schema.Len())
	for _, f := range schema.Fields() {
		if v, ok := fields[f.Name]; ok && v != nil {
			rec[f.Name] = v
		} else if v, ok := existing[f.Name]; ok {
			rec[f.Name] = v
		} else {
			rec[f.Name] = f.Default
		}
	}
	coerceNulls(rec)

	if err := s.writeDoc(id, rec); err != nil {
		return err
	}
	s.logger.Info("Updated record", "id", id)
	return s.reindex(ctx, id, rec)
}

// Close marks a record closed.
func (s *Store) Close(ctx context.Context, id string) error {
	return s.Update(ctx, id, map[string]interface{}{record.FieldStatus: record.StatusClosed})
}

// Purge is reserved; records are never deleted.
func (s *Store) Purge(_ context.Context, id string) error {
	s.logger.Debug("Purge is not supported, record kept", "id", id)
	return nil
}

func (s *Store) reindex(ctx context.Context, id string, rec record.Record) error {
	idx, err := s.Index()
	if err == nil {
		err = idx.Reindex(ctx, id, rec)
	}
	if err != nil {
		s.logger.Warn("Index not updated", "id", id, "error", err)
		return errors.New(errors.IndexStale, "record "+id+" saved but the index was not updated", err).
			WithDetails(map[string]string{"id": id})
	}
	return nil
}

// RecordIDs lists the ids of every canonical record file, sorted. Files
// whose names are not record ids, such as a README, are skipped.
func (s *Store) RecordIDs() ([]string, error) {
	entries, err := os.ReadDir(s.abs("."))
	if err != nil {
		return nil, errors.New(errors.IOFailure, "failed to list "+s.folder, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || s.checkID(e.Name()) != nil {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// checkID rejects anything that cannot name a record file in the folder:
// reserved schema and index files, paths, and non-id names.
func (s *Store) checkID(id string) error {
	switch id {
	case record.SchemaID, record.CreationSchemaID, record.LegacyCreationSchemaID, s.cfg.IndexFile:
		return errors.Newf(errors.InvalidInput, nil, "%q is reserved and not a record id", id)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") || !identity.IsID(id) {
		return errors.Newf(errors.InvalidInput, nil, "%q is not a record id", id)
	}
	return nil
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func coerceNulls(rec record.Record) {
	for k, v := range rec {
		if v == nil {
			rec[k] = ""
		}
	}
}
