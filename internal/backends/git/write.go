package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"yt/internal/errors"
	"yt/internal/repostate"
)

// Add stages paths without committing them.
func (g *GitAdapter) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	_, err := g.executeGitCommand(ctx, args...)
	return err
}

// NewRecordCommit writes an empty commit on top of HEAD, moves tag onto it
// and returns its hash. The index and working tree are left untouched, so
// staged changes stay staged. On an unborn branch the commit becomes the
// root commit with an empty tree.
func (g *GitAdapter) NewRecordCommit(ctx context.Context, message, tag string) (string, error) {
	head, unborn, err := repostate.Head(g.repoRoot)
	if err != nil {
		return "", err
	}

	var tree string
	if unborn {
		tree, err = g.run(ctx, runOpts{stdin: []byte{}}, "mktree")
	} else {
		tree, err = g.executeGitCommand(ctx, "rev-parse", head+"^{tree}")
	}
	if err != nil {
		return "", err
	}

	commitArgs := []string{"commit-tree", tree, "-m", message}
	if !unborn {
		commitArgs = append(commitArgs, "-p", head)
	}
	commit, err := g.executeGitCommand(ctx, commitArgs...)
	if err != nil {
		return "", err
	}

	// the old value guards against HEAD moving under us
	if _, err := g.executeGitCommand(ctx, "update-ref", "-m", "yt: "+message, "HEAD", commit, head); err != nil {
		return "", err
	}

	if tag != "" {
		if _, err := g.executeGitCommand(ctx, "tag", "-f", tag, commit); err != nil {
			return "", err
		}
	}

	g.logger.Debug("Created record commit", "commit", commit, "tag", tag, "unborn", unborn)
	return commit, nil
}

// ExcludeLocally adds pattern to .git/info/exclude unless already present.
func (g *GitAdapter) ExcludeLocally(ctx context.Context, pattern string) error {
	rel, err := g.executeGitCommand(ctx, "rev-parse", "--git-path", "info/exclude")
	if err != nil {
		return err
	}
	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.repoRoot, path)
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.New(errors.IOFailure, "failed to read exclude file", err)
	}
	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == pattern {
			return nil
		}
	}
	entry := pattern + "\n"
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		entry = "\n" + entry
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(errors.IOFailure, "failed to create info dir", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.New(errors.IOFailure, "failed to open exclude file", err)
	}
	defer f.Close()

	if _, err := f.WriteString(entry); err != nil {
		return errors.New(errors.IOFailure, "failed to update exclude file", err)
	}
	return nil
}
