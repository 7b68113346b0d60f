// Package historytest provides an in-memory history.Source for tests.
package historytest

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"yt/internal/history"
)

// Revision is one commit touching a path.
type Revision struct {
	ID        string
	Content   string
	Committer string
	Time      time.Time
	// Files defaults to the path itself when empty.
	Files []string
}

// Source keeps working tree content and per-path revision lists in memory.
type Source struct {
	Working map[string]string
	// Revisions per path, oldest first.
	Revisions map[string][]Revision
	// Changed is the working tree's modified or added set.
	Changed []string

	// CursorErr is returned by Cursor for every path when set.
	CursorErr error
	// PreviousErr is returned when stepping past the revision with this id.
	PreviousErr   error
	PreviousErrAt string
}

// NewSource returns an empty Source.
func NewSource() *Source {
	return &Source{
		Working:   map[string]string{},
		Revisions: map[string][]Revision{},
	}
}

// Commit appends a revision of path with the given content and makes it the
// working tree content too. The id is generated when rev.ID is empty.
func (s *Source) Commit(path string, rev Revision) {
	revs := s.Revisions[path]
	if rev.ID == "" {
		rev.ID = fmt.Sprintf("%s@%d", path, len(revs)+1)
	}
	if rev.Time.IsZero() {
		rev.Time = time.Date(2024, 1, 1, len(revs), 0, 0, 0, time.UTC)
	}
	if rev.Committer == "" {
		rev.Committer = "Test <test@test.com>"
	}
	if len(rev.Files) == 0 {
		rev.Files = []string{path}
	}
	s.Revisions[path] = append(revs, rev)
	s.Working[path] = rev.Content
}

// Current implements history.Source.
func (s *Source) Current(path string) ([]byte, error) {
	content, ok := s.Working[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return []byte(content), nil
}

// Cursor implements history.Source.
func (s *Source) Cursor(_ context.Context, path string) (history.Cursor, error) {
	if s.CursorErr != nil {
		return nil, s.CursorErr
	}
	revs := s.Revisions[path]
	if len(revs) == 0 {
		return nil, nil
	}
	return &cursor{src: s, revs: revs, pos: len(revs) - 1}, nil
}

// ModifiedOrAdded returns the configured Changed set, sorted.
func (s *Source) ModifiedOrAdded(context.Context) ([]string, error) {
	out := append([]string(nil), s.Changed...)
	sort.Strings(out)
	return out, nil
}

type cursor struct {
	src  *Source
	revs []Revision
	pos  int
}

func (c *cursor) rev() Revision { return c.revs[c.pos] }

func (c *cursor) Content(context.Context) ([]byte, error) { return []byte(c.rev().Content), nil }
func (c *cursor) TouchedFiles() []string                  { return c.rev().Files }
func (c *cursor) Committer() string                       { return c.rev().Committer }
func (c *cursor) Timestamp() time.Time                    { return c.rev().Time }
func (c *cursor) RevisionID() string                      { return c.rev().ID }

func (c *cursor) Previous(context.Context) (history.Cursor, error) {
	if c.src.PreviousErr != nil && c.rev().ID == c.src.PreviousErrAt {
		return nil, c.src.PreviousErr
	}
	if c.pos == 0 {
		return nil, nil
	}
	return &cursor{src: c.src, revs: c.revs, pos: c.pos - 1}, nil
}
