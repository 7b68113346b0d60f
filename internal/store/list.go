package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"yt/internal/index"
	"yt/internal/record"
)

// Entry is one row of the record listing.
type Entry struct {
	ID             string                `json:"id" yaml:"id" toml:"id"`
	Record         record.Record         `json:"record" yaml:"record" toml:"record"`
	Classification record.Classification `json:"classification" yaml:"classification" toml:"classification"`
}

// List returns index entries whose status contains status, ignoring case.
// An empty status matches everything. Entries are ordered by id.
func (s *Store) List(_ context.Context, status string) ([]Entry, error) {
	idx, err := index.Load(s.abs(s.cfg.IndexFile))
	if err != nil {
		return nil, err
	}

	status = strings.ToLower(status)
	var out []Entry
	for _, id := range idx.IDs() {
		rec := idx[id]
		if !strings.Contains(strings.ToLower(rec.String(record.FieldStatus)), status) {
			continue
		}
		out = append(out, Entry{ID: id, Record: rec, Classification: record.Classify(rec)})
	}
	return out, nil
}

// Canonical reads every record file. Records that cannot be read are
// reported in the returned error, which may be non-nil alongside a partial
// result.
func (s *Store) Canonical(ctx context.Context) (map[string]record.Record, error) {
	ids, err := s.RecordIDs()
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	recs := make(map[string]record.Record, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		recs[id] = rec
	}
	return recs, errs.ErrorOrNil()
}

// ReindexAll rebuilds every index entry from its canonical record. Records
// that fail to load are skipped and reported; the rest are still indexed.
func (s *Store) ReindexAll(ctx context.Context) (int, error) {
	recs, loadErr := s.Canonical(ctx)
	if recs == nil {
		return 0, loadErr
	}

	var errs *multierror.Error
	if loadErr != nil {
		errs = multierror.Append(errs, loadErr)
	}
	idx, err := s.Index()
	if err == nil {
		err = idx.ReindexMany(ctx, recs)
	}
	if err != nil {
		return 0, multierror.Append(errs, err)
	}

	failed := 0
	if errs != nil {
		failed = len(errs.Errors)
	}
	s.logger.Info("Reindexed records", "count", len(recs), "failed", failed)
	return len(recs), errs.ErrorOrNil()
}

// Reindex rebuilds the index entry of a single record.
func (s *Store) Reindex(ctx context.Context, id string) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	idx, err := s.Index()
	if err != nil {
		return err
	}
	return idx.Reindex(ctx, id, rec)
}

// Freshness compares the index with the canonical records.
func (s *Store) Freshness(ctx context.Context) (index.FreshnessResult, error) {
	schema, err := s.Schema()
	if err != nil {
		return index.FreshnessResult{}, err
	}
	idx, err := index.Load(s.abs(s.cfg.IndexFile))
	if err != nil {
		return index.FreshnessResult{}, err
	}
	recs, err := s.Canonical(ctx)
	if recs == nil {
		return index.FreshnessResult{}, err
	}
	if err != nil {
		s.logger.Warn("Some records could not be read", "error", err)
	}
	return index.CheckFreshness(idx, recs, schema), nil
}
