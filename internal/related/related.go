// Package related maps changed files to the records whose history touched
// them.
package related

import (
	"context"
	"log/slog"

	"yt/internal/errors"
	"yt/internal/history"
	"yt/internal/paths"
)

// Source is the backend view the scanner needs.
type Source interface {
	history.Source
	ModifiedOrAdded(ctx context.Context) ([]string, error)
}

// Scanner checks candidate records against a set of files.
type Scanner struct {
	src    Source
	folder string
	logger *slog.Logger
}

// NewScanner scans records stored under folder.
func NewScanner(src Source, folder string, logger *slog.Logger) *Scanner {
	return &Scanner{src: src, folder: paths.NormalizePath(folder), logger: logger}
}

// Related returns the candidates that are related to any file m matches,
// in candidate order. A record whose own file has uncommitted changes is
// always related; otherwise it is related when some revision of its file
// also touched a matching file.
func (s *Scanner) Related(ctx context.Context, m Matcher, candidates []string) ([]string, error) {
	changed, err := s.src.ModifiedOrAdded(ctx)
	if err != nil {
		return nil, err
	}
	uncommitted := make(map[string]bool, len(changed))
	for _, p := range changed {
		uncommitted[paths.NormalizePath(p)] = true
	}

	var out []string
	for _, id := range candidates {
		path := paths.RecordPath(s.folder, id)
		if uncommitted[path] {
			s.logger.Debug("Record has uncommitted changes", "id", id)
			out = append(out, id)
			continue
		}

		rev, err := s.firstMatch(ctx, path, m)
		if err != nil {
			return nil, err
		}
		if rev != "" {
			s.logger.Debug("Record related through history", "id", id, "revision", rev)
			out = append(out, id)
		}
	}
	return out, nil
}

// firstMatch walks back from the newest revision of path and returns the
// first revision that also touched a file m matches, or "" when none did.
func (s *Scanner) firstMatch(ctx context.Context, path string, m Matcher) (string, error) {
	c, err := s.src.Cursor(ctx, path)
	if err != nil {
		return "", err
	}
	seen := map[string]bool{}
	for c != nil {
		if err := ctx.Err(); err != nil {
			return "", errors.New(errors.Timeout, "relatedness scan cancelled", err)
		}
		rev := c.RevisionID()
		if seen[rev] {
			return "", nil
		}
		seen[rev] = true

		for _, f := range c.TouchedFiles() {
			if m.Match(paths.NormalizePath(f)) {
				return rev, nil
			}
		}
		if c, err = c.Previous(ctx); err != nil {
			return "", err
		}
	}
	return "", nil
}
