package git

import (
	"context"
	"sort"
	"strings"
)

// ModifiedOrAdded lists repo-relative paths that are modified, staged for
// addition, renamed or copied in the working tree. Untracked files are not
// included.
func (g *GitAdapter) ModifiedOrAdded(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, runOpts{raw: true}, "status", "--porcelain=v1", "-z", "--untracked-files=no")
	if err != nil {
		return nil, err
	}
	return parsePorcelainZ(out), nil
}

// parsePorcelainZ parses `git status --porcelain=v1 -z` output. Rename and
// copy entries carry the original path as a separate NUL-terminated field.
func parsePorcelainZ(out string) []string {
	seen := map[string]bool{}
	entries := strings.Split(out, "\x00")
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		if len(e) < 4 {
			continue
		}
		x, y, path := e[0], e[1], e[3:]
		if x == 'R' || x == 'C' {
			// skip the source path
			i++
		}
		if isModifiedOrAdded(x) || isModifiedOrAdded(y) {
			seen[path] = true
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func isModifiedOrAdded(c byte) bool {
	switch c {
	case 'M', 'A', 'R', 'C', 'T':
		return true
	}
	return false
}
