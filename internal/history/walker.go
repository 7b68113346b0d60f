package history

import (
	"context"
	"log/slog"

	"yt/internal/diff"
	"yt/internal/errors"
)

// Walker lazily yields the snapshots of one path, newest first.
//
//	w, err := history.Walk(ctx, src, "issues/abc", record.Decode, logger)
//	for w.Next() {
//	    s := w.Snapshot()
//	}
//	if err := w.Err(); err != nil { ... }
//
// Each snapshot is held back until the next older one has been parsed so its
// Diff can be attached before it is handed out.
type Walker struct {
	ctx    context.Context
	path   string
	decode Decoder
	logger *slog.Logger

	cursor  Cursor
	seen    map[string]bool
	pending *Snapshot
	current *Snapshot
	err     error
	skipped int
}

// Walk starts a walk at the working tree content of path. Only a failure to
// read or decode that content is returned as an error; malformed historical
// revisions are skipped during iteration.
func Walk(ctx context.Context, src Source, path string, decode Decoder, logger *slog.Logger) (*Walker, error) {
	raw, err := src.Current(path)
	if err != nil {
		return nil, errors.New(errors.IOFailure, "failed to read "+path, err)
	}
	data, err := decode(raw)
	if err != nil {
		return nil, errors.New(errors.UnparsableSnapshot, "failed to parse "+path, err)
	}

	cursor, err := src.Cursor(ctx, path)
	if err != nil {
		return nil, err
	}

	return &Walker{
		ctx:     ctx,
		path:    path,
		decode:  decode,
		logger:  logger.With("path", path),
		cursor:  cursor,
		seen:    map[string]bool{},
		pending: &Snapshot{Data: data, Working: true},
	}, nil
}

// Next advances to the next older snapshot. It returns false when history is
// exhausted or the backend failed; check Err afterwards.
func (w *Walker) Next() bool {
	if w.pending == nil {
		w.current = nil
		return false
	}

	older := w.advance()
	if older != nil {
		w.pending.Diff = diff.Compare(older.Data, w.pending.Data)
		w.pending.Compared = true
	}

	w.current = w.pending
	w.pending = older
	return true
}

// Snapshot returns the snapshot produced by the last successful Next.
func (w *Walker) Snapshot() *Snapshot {
	return w.current
}

// Err returns the backend error that ended the walk early, if any.
func (w *Walker) Err() error {
	return w.err
}

// Skipped returns how many revisions were dropped as unparsable so far.
func (w *Walker) Skipped() int {
	return w.skipped
}

// advance returns the next parsable revision behind the cursor and steps the
// cursor past it.
func (w *Walker) advance() *Snapshot {
	for w.cursor != nil {
		if err := w.ctx.Err(); err != nil {
			w.fail(errors.New(errors.Timeout, "history walk cancelled", err))
			return nil
		}

		c := w.cursor
		rev := c.RevisionID()
		if w.seen[rev] {
			w.logger.Warn("Revision seen twice, stopping walk", "revision", rev)
			w.cursor = nil
			return nil
		}
		w.seen[rev] = true

		prev, err := c.Previous(w.ctx)
		if err != nil {
			w.fail(err)
		} else {
			w.cursor = prev
		}

		data, ok := w.parse(c)
		if ok {
			return fromCursor(c, data)
		}
	}
	return nil
}

func (w *Walker) parse(c Cursor) (map[string]interface{}, bool) {
	raw, err := c.Content(w.ctx)
	if err == nil {
		var data map[string]interface{}
		if data, err = w.decode(raw); err == nil {
			return data, true
		}
	}
	w.skipped++
	w.logger.Debug("Skipping unparsable revision",
		"revision", c.RevisionID(),
		"code", errors.UnparsableSnapshot,
		"error", err,
	)
	return nil, false
}

func (w *Walker) fail(err error) {
	w.err = err
	w.cursor = nil
}

// Collect drains w into a slice.
func Collect(w *Walker) ([]*Snapshot, error) {
	var out []*Snapshot
	for w.Next() {
		out = append(out, w.Snapshot())
	}
	return out, w.Err()
}
