package related

import (
	"github.com/gobwas/glob"

	"yt/internal/errors"
	"yt/internal/paths"
)

// Matcher decides whether a repo-relative path is one of interest.
type Matcher interface {
	Match(path string) bool
}

type exact map[string]bool

func (e exact) Match(path string) bool { return e[path] }

// Files matches exactly the given paths.
func Files(files []string) Matcher {
	m := make(exact, len(files))
	for _, f := range files {
		m[paths.NormalizePath(f)] = true
	}
	return m
}

type globs []glob.Glob

func (g globs) Match(path string) bool {
	for _, p := range g {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// Globs matches paths against shell-style patterns. "*" stops at "/",
// "**" crosses directories.
func Globs(patterns []string) (Matcher, error) {
	out := make(globs, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(paths.NormalizePath(p), '/')
		if err != nil {
			return nil, errors.Newf(errors.InvalidInput, err, "invalid pattern %q", p)
		}
		out = append(out, g)
	}
	return out, nil
}
