// Package burndown replays the index history into a remaining-work series
// for one group.
package burndown

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"yt/internal/history"
	"yt/internal/index"
	"yt/internal/record"
)

// Checkpoint is the open estimate of a group at one point in time.
type Checkpoint struct {
	Time  time.Time `json:"time" yaml:"time" toml:"time"`
	Hours int       `json:"hours" yaml:"hours" toml:"hours"`
}

// GroupEstimateHours sums the estimates of the open records in group.
// Estimates that do not parse as "<integer> <minute|hour|day|week>"
// contribute nothing. Minutes are totalled separately and only whole hours
// of them count.
func GroupEstimateHours(idx index.Index, group string) int {
	hours, minutes := 0, 0
	for _, id := range idx.IDs() {
		rec := idx[id]
		if rec.String(record.FieldGroup) != group {
			continue
		}
		if !strings.Contains(strings.ToLower(rec.String(record.FieldStatus)), record.StatusOpen) {
			continue
		}
		est, ok := record.ParseEstimate(rec[record.FieldEstimate])
		if !ok {
			continue
		}
		h, m, ok := est.Split()
		if !ok {
			continue
		}
		hours += h
		minutes += m
	}
	return hours + minutes/60
}

// Aggregator computes burndown series from the index file's history.
type Aggregator struct {
	src    history.Source
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// New returns an Aggregator over the index at the repo-relative path.
func New(src history.Source, indexPath string, logger *slog.Logger) *Aggregator {
	return &Aggregator{src: src, path: indexPath, logger: logger, now: time.Now}
}

// Burndown returns checkpoints newest first, starting with the working tree
// at the current time. Once the group has had open work, the walk stops at
// the first older checkpoint where it had none; that zero is included.
//
// An index that cannot be read yields no checkpoints and no error. A
// backend failure during the walk returns the checkpoints collected so far
// with the error.
func (a *Aggregator) Burndown(ctx context.Context, group string) ([]Checkpoint, error) {
	w, err := history.Walk(ctx, a.src, a.path, record.Decode, a.logger)
	if err != nil {
		a.logger.Debug("Index unavailable, no burndown", "path", a.path, "error", err)
		return nil, nil
	}

	var out []Checkpoint
	found := false
	for w.Next() {
		snap := w.Snapshot()
		at := snap.Timestamp
		if snap.Working {
			at = a.now()
		}
		hours := GroupEstimateHours(index.FromMap(snap.Data), group)
		out = append(out, Checkpoint{Time: at, Hours: hours})

		if hours > 0 {
			found = true
		} else if found {
			break
		}
	}
	if n := w.Skipped(); n > 0 {
		a.logger.Debug("Skipped unparsable index revisions", "count", n)
	}
	return out, w.Err()
}
