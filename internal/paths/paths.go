// Package paths converts between filesystem paths and the slash-separated,
// repo-relative paths the backend and the index use.
package paths

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"yt/internal/errors"
)

// NormalizePath converts backslashes to forward slashes and cleans the result.
func NormalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// JoinRepoPath turns a repo-relative path back into a filesystem path.
func JoinRepoPath(repoRoot, rel string) string {
	return filepath.Join(repoRoot, filepath.FromSlash(NormalizePath(rel)))
}

// InFolder reports whether the repo-relative path p is folder itself or
// lies below it.
func InFolder(p, folder string) bool {
	p, folder = NormalizePath(p), NormalizePath(folder)
	if folder == "." {
		return true
	}
	return p == folder || strings.HasPrefix(p, folder+"/")
}

// RecordPath returns the repo-relative path of the record with the given id.
func RecordPath(folder, id string) string {
	return path.Join(NormalizePath(folder), id)
}

// RepoRelative resolves a path given on the command line against base, the
// directory it was typed in, and returns it relative to repoRoot. Symlinks
// are resolved where the path exists so a file reached through a linked
// directory still matches what git reports. Paths outside the repository
// are INVALID_INPUT.
func RepoRelative(p, base, repoRoot string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	rel, err := filepath.Rel(resolve(repoRoot), resolve(p))
	if err != nil {
		return "", errors.Newf(errors.InvalidInput, err, "cannot place %s in the repository", p)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", errors.Newf(errors.InvalidInput, nil, "%s is outside the repository", p)
	}
	return rel, nil
}

// resolve follows symlinks in the longest existing prefix of p.
func resolve(p string) string {
	p = filepath.Clean(p)
	var rest []string
	for {
		if r, err := filepath.EvalSymlinks(p); err == nil {
			return filepath.Join(append([]string{r}, rest...)...)
		} else if !os.IsNotExist(err) {
			return filepath.Join(append([]string{p}, rest...)...)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return filepath.Join(append([]string{p}, rest...)...)
		}
		rest = append([]string{filepath.Base(p)}, rest...)
		p = parent
	}
}
