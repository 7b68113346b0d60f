package git

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"yt/internal/config"
	"yt/internal/errors"
	"yt/internal/repostate"
)

const (
	// BackendID is the unique identifier for the Git backend
	BackendID = "git"

	// DefaultQueryTimeout applies when the config carries no timeout
	DefaultQueryTimeout = 10 * time.Second
)

// BlobCache stores file content by (revision, path). Content at a revision
// never changes, so entries never need invalidation.
type BlobCache interface {
	Get(ctx context.Context, rev, path string) ([]byte, bool)
	Put(ctx context.Context, rev, path string, data []byte) error
}

// GitAdapter is the version control backend: per-path history, content at a
// revision, working tree status, staging and record identity commits.
type GitAdapter struct {
	repoRoot     string
	queryTimeout time.Duration
	logger       *slog.Logger
	cache        BlobCache
}

// Option configures a GitAdapter
type Option func(*GitAdapter)

// WithBlobCache serves revision content through c.
func WithBlobCache(c BlobCache) Option {
	return func(g *GitAdapter) {
		g.cache = c
	}
}

// NewGitAdapter creates a Git backend adapter for the work tree at repoRoot
func NewGitAdapter(repoRoot string, cfg *config.Config, logger *slog.Logger, opts ...Option) (*GitAdapter, error) {
	if logger == nil {
		return nil, errors.New(errors.InternalError, "Logger is required for GitAdapter", nil)
	}

	timeout := DefaultQueryTimeout
	if cfg != nil && cfg.Git.TimeoutMs > 0 {
		timeout = time.Duration(cfg.Git.TimeoutMs) * time.Millisecond
	}

	adapter := &GitAdapter{
		repoRoot:     repoRoot,
		queryTimeout: timeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(adapter)
	}

	if !adapter.IsAvailable() {
		return nil, errors.New(errors.NoBackingStore, "Git is not available in this directory", nil).
			WithDetails(map[string]interface{}{"repoRoot": repoRoot})
	}

	logger.Debug("Git adapter initialized",
		"backend", BackendID,
		"repoRoot", repoRoot,
		"timeout", timeout.String(),
		"cache", adapter.cache != nil,
	)

	return adapter, nil
}

// ID returns the backend identifier
func (g *GitAdapter) ID() string {
	return BackendID
}

// Root returns the work tree root
func (g *GitAdapter) Root() string {
	return g.repoRoot
}

// IsAvailable checks if git is available and this is a git repository
func (g *GitAdapter) IsAvailable() bool {
	return repostate.IsGitRepository(g.repoRoot)
}

// Current reads the working tree content of a repo-relative path.
func (g *GitAdapter) Current(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(g.repoRoot, filepath.FromSlash(path)))
}

type runOpts struct {
	stdin []byte
	env   []string
	// raw keeps output untrimmed, for file content
	raw bool
}

// run executes a git command with the adapter timeout
func (g *GitAdapter) run(ctx context.Context, o runOpts, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot
	if o.stdin != nil {
		cmd.Stdin = bytes.NewReader(o.stdin)
	}
	if len(o.env) > 0 {
		cmd.Env = append(os.Environ(), o.env...)
	}

	g.logger.Debug("Executing git command",
		"args", args,
		"timeout", g.queryTimeout.String(),
	)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.New(errors.Timeout, "Git command timed out", err).
				WithDetails(map[string]interface{}{"args": args})
		}

		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", errors.New(errors.BackendFailure, "Git command failed", err).
				WithDetails(map[string]interface{}{
					"args":   args,
					"stderr": strings.TrimSpace(string(exitErr.Stderr)),
				})
		}

		return "", errors.New(errors.BackendFailure, "Failed to execute git command", err)
	}

	if o.raw {
		return string(output), nil
	}
	return strings.TrimSpace(string(output)), nil
}

// executeGitCommand runs a git command and returns its trimmed output
func (g *GitAdapter) executeGitCommand(ctx context.Context, args ...string) (string, error) {
	return g.run(ctx, runOpts{}, args...)
}

// executeGitCommandLines runs a git command and returns non-empty output lines
func (g *GitAdapter) executeGitCommandLines(ctx context.Context, args ...string) ([]string, error) {
	output, err := g.executeGitCommand(ctx, args...)
	if err != nil {
		return nil, err
	}

	if output == "" {
		return []string{}, nil
	}

	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result, nil
}
