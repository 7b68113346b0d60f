// Package history reconstructs the lifecycle of a tracked file by walking
// its revisions backward from the working tree.
package history

import (
	"context"
	"time"

	"yt/internal/diff"
)

// Cursor points at one revision of a single tracked path.
type Cursor interface {
	// Content returns the path's content at this revision.
	Content(ctx context.Context) ([]byte, error)
	// TouchedFiles lists every path the revision modified.
	TouchedFiles() []string
	Committer() string
	Timestamp() time.Time
	RevisionID() string
	// Previous moves to the next older revision that touched the path.
	// It returns nil, nil when there is none.
	Previous(ctx context.Context) (Cursor, error)
}

// Source is the read side of the version control backend.
type Source interface {
	// Current returns the working tree content of a repo-relative path.
	Current(path string) ([]byte, error)
	// Cursor returns a cursor at the newest committed revision touching
	// path, or nil when the path has never been committed.
	Cursor(ctx context.Context, path string) (Cursor, error)
}

// Decoder turns raw file content into a field mapping.
type Decoder func([]byte) (map[string]interface{}, error)

// Snapshot is one observation of a tracked file.
type Snapshot struct {
	Data map[string]interface{} `json:"data" yaml:"data" toml:"data"`

	// Working is set on the snapshot read from the working tree; it has no
	// revision provenance.
	Working   bool      `json:"working,omitempty" yaml:"working,omitempty" toml:"working,omitempty"`
	Committer string    `json:"committer,omitempty" yaml:"committer,omitempty" toml:"committer,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty" toml:"timestamp,omitempty"`
	Files     []string  `json:"files,omitempty" yaml:"files,omitempty" toml:"files,omitempty"`
	Revision  string    `json:"revision,omitempty" yaml:"revision,omitempty" toml:"revision,omitempty"`

	// Diff describes what changed from the next older snapshot to this one.
	// It is only meaningful when Compared is set; the oldest snapshot has
	// nothing to compare against. A nil Diff with Compared set means the
	// revision did not change any field.
	Diff     *diff.Diff `json:"diff,omitempty" yaml:"diff,omitempty" toml:"diff,omitempty"`
	Compared bool       `json:"-" yaml:"-" toml:"-"`
}

// Changed reports whether this snapshot differs from its predecessor.
func (s *Snapshot) Changed() bool {
	return s.Compared && s.Diff != nil
}

func fromCursor(c Cursor, data map[string]interface{}) *Snapshot {
	return &Snapshot{
		Data:      data,
		Committer: c.Committer(),
		Timestamp: c.Timestamp(),
		Files:     c.TouchedFiles(),
		Revision:  c.RevisionID(),
	}
}
