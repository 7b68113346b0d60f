package git

import (
	"context"
	"strings"
	"time"

	"yt/internal/errors"
	"yt/internal/history"
)

const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
)

// CommitInfo represents one commit that touched a file
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Committer string    `json:"committer"`
	Timestamp time.Time `json:"timestamp"`
	// Files lists every path the commit touched, not only the queried one
	Files []string `json:"files"`
}

// GetFileHistory returns the commits touching filePath, most recent first.
// An untracked or never committed path yields an empty slice.
func (g *GitAdapter) GetFileHistory(ctx context.Context, filePath string) ([]CommitInfo, error) {
	if filePath == "" {
		return nil, errors.New(errors.InvalidInput, "File path is required", nil)
	}

	g.logger.Debug("Getting file history", "filePath", filePath)

	// %x1e opens each commit so the --name-only block that follows stays
	// attached to it; --full-diff lists all files of the commit. Merges are
	// listed against their first parent, otherwise they carry no files.
	output, err := g.executeGitCommand(ctx,
		"-c", "core.quotePath=false",
		"log",
		"--full-diff",
		"--diff-merges=first-parent",
		"--name-only",
		"--format="+recordSep+"%H"+fieldSep+"%cn <%ce>"+fieldSep+"%cI",
		"--",
		filePath,
	)
	if err != nil {
		if isUnbornHead(err) {
			return []CommitInfo{}, nil
		}
		return nil, err
	}

	return g.parseLog(output), nil
}

func (g *GitAdapter) parseLog(output string) []CommitInfo {
	var commits []CommitInfo
	for _, block := range strings.Split(output, recordSep) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		lines := strings.Split(block, "\n")
		parts := strings.SplitN(lines[0], fieldSep, 3)
		if len(parts) != 3 {
			g.logger.Warn("Skipping malformed git log entry", "line", lines[0])
			continue
		}

		when, err := time.Parse(time.RFC3339, parts[2])
		if err != nil {
			g.logger.Warn("Skipping git log entry with bad date", "hash", parts[0], "date", parts[2])
			continue
		}

		files := make([]string, 0, len(lines)-1)
		for _, l := range lines[1:] {
			if l = strings.TrimSpace(l); l != "" {
				files = append(files, l)
			}
		}

		commits = append(commits, CommitInfo{
			Hash:      parts[0],
			Committer: parts[1],
			Timestamp: when,
			Files:     files,
		})
	}
	return commits
}

// Show returns the content of path at rev, going through the blob cache
// when one is configured.
func (g *GitAdapter) Show(ctx context.Context, rev, path string) ([]byte, error) {
	if g.cache != nil {
		if data, ok := g.cache.Get(ctx, rev, path); ok {
			return data, nil
		}
	}

	out, err := g.run(ctx, runOpts{raw: true}, "show", rev+":"+path)
	if err != nil {
		return nil, err
	}
	data := []byte(out)

	if g.cache != nil {
		if err := g.cache.Put(ctx, rev, path, data); err != nil {
			g.logger.Warn("Failed to cache revision content", "rev", rev, "path", path, "error", err)
		}
	}
	return data, nil
}

// Cursor implements history.Source. The commit list is read once; content
// is fetched per step.
func (g *GitAdapter) Cursor(ctx context.Context, path string) (history.Cursor, error) {
	commits, err := g.GetFileHistory(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}
	return &fileCursor{g: g, path: path, commits: commits}, nil
}

type fileCursor struct {
	g       *GitAdapter
	path    string
	commits []CommitInfo
	pos     int
}

func (c *fileCursor) commit() CommitInfo { return c.commits[c.pos] }

func (c *fileCursor) Content(ctx context.Context) ([]byte, error) {
	return c.g.Show(ctx, c.commit().Hash, c.path)
}

func (c *fileCursor) TouchedFiles() []string { return c.commit().Files }
func (c *fileCursor) Committer() string      { return c.commit().Committer }
func (c *fileCursor) Timestamp() time.Time   { return c.commit().Timestamp }
func (c *fileCursor) RevisionID() string     { return c.commit().Hash }

func (c *fileCursor) Previous(context.Context) (history.Cursor, error) {
	if c.pos+1 >= len(c.commits) {
		return nil, nil
	}
	return &fileCursor{g: c.g, path: c.path, commits: c.commits, pos: c.pos + 1}, nil
}

func isUnbornHead(err error) bool {
	te, ok := err.(*errors.TrakError)
	if !ok || te.Code != errors.BackendFailure {
		return false
	}
	details, _ := te.Details.(map[string]interface{})
	stderr, _ := details["stderr"].(string)
	return strings.Contains(stderr, "does not have any commits yet") ||
		strings.Contains(stderr, "bad default revision 'HEAD'")
}
