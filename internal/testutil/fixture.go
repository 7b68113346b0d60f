// Package testutil provides git repository fixtures and comparison helpers for tests.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// GitRepo is a throwaway git work tree rooted in a test temp dir.
type GitRepo struct {
	t testing.TB

	// Root is the absolute path of the work tree
	Root string

	// clock advances by one hour per commit so history order is stable
	clock time.Time
}

// RequireGit skips the test when no git executable is available.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// NewGitRepo initializes an empty repository with a fixed test identity.
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	RequireGit(t)

	root := t.TempDir()
	// macOS temp dirs sit behind a symlink; git reports the resolved path
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	r := &GitRepo{
		t:     t,
		Root:  root,
		clock: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	r.Git("init", "-q")
	r.Git("config", "user.email", "test@test.com")
	r.Git("config", "user.name", "Test")
	r.Git("config", "commit.gpgsign", "false")
	r.Git("config", "tag.gpgsign", "false")
	return r
}

// Git runs a git command in the repository and returns its trimmed stdout.
func (r *GitRepo) Git(args ...string) string {
	r.t.Helper()
	return r.gitEnv(nil, args...)
}

func (r *GitRepo) gitEnv(env []string, args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Root
	cmd.Env = append(os.Environ(), env...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %v failed: %v\n%s", args, err, output)
	}
	return strings.TrimSpace(string(output))
}

// Path returns the absolute path of a slash-separated repo-relative path.
func (r *GitRepo) Path(rel string) string {
	return filepath.Join(r.Root, filepath.FromSlash(rel))
}

// WriteFile writes content to a repo-relative path, creating parent dirs.
func (r *GitRepo) WriteFile(rel, content string) {
	r.t.Helper()
	path := r.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s: %v", rel, err)
	}
}

// ReadFile returns the content of a repo-relative path.
func (r *GitRepo) ReadFile(rel string) string {
	r.t.Helper()
	data, err := os.ReadFile(r.Path(rel))
	if err != nil {
		r.t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// Commit stages everything and commits it, returning the new commit hash.
// Each commit is dated one hour after the previous one.
func (r *GitRepo) Commit(message string) string {
	r.t.Helper()
	r.clock = r.clock.Add(time.Hour)
	return r.CommitAt(message, r.clock)
}

// CommitAt stages everything and commits it with the given author and
// committer date.
func (r *GitRepo) CommitAt(message string, when time.Time) string {
	r.t.Helper()
	date := when.Format(time.RFC3339)
	env := []string{
		fmt.Sprintf("GIT_AUTHOR_DATE=%s", date),
		fmt.Sprintf("GIT_COMMITTER_DATE=%s", date),
	}
	r.Git("add", "-A")
	r.gitEnv(env, "commit", "-q", "--allow-empty", "-m", message)
	return r.Git("rev-parse", "HEAD")
}
