package repostate

import (
	"crypto/sha256"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"yt/internal/errors"
)

const (
	// EmptyHash represents an empty status hash
	EmptyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// RepoState is a snapshot of the working tree as seen by git
type RepoState struct {
	RepoStateID string `json:"repoStateId"`
	HeadCommit  string `json:"headCommit,omitempty"`
	Unborn      bool   `json:"unborn"`
	StatusHash  string `json:"statusHash"`
	Dirty       bool   `json:"dirty"`
	ComputedAt  string `json:"computedAt"`
}

// ComputeRepoState computes the current repository state using git commands.
// A repository without commits yields Unborn=true and an empty HeadCommit.
func ComputeRepoState(repoRoot string) (*RepoState, error) {
	head, unborn, err := Head(repoRoot)
	if err != nil {
		return nil, err
	}

	status, err := gitOutput(repoRoot, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, errors.New(errors.BackendFailure, "Failed to read working tree status", err)
	}
	statusHash := hashString(status)

	return &RepoState{
		RepoStateID: computeRepoStateID(head, statusHash),
		HeadCommit:  head,
		Unborn:      unborn,
		StatusHash:  statusHash,
		Dirty:       statusHash != EmptyHash,
		ComputedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Head returns the commit HEAD points to. unborn is true when the current
// branch has no commits yet.
func Head(repoRoot string) (commit string, unborn bool, err error) {
	commit, err = gitOutput(repoRoot, "rev-parse", "--verify", "--quiet", "HEAD")
	if err == nil {
		return strings.TrimSpace(commit), false, nil
	}
	if !IsGitRepository(repoRoot) {
		return "", false, notARepo(err)
	}
	// rev-parse --verify fails quietly on an unborn branch
	return "", true, nil
}

func gitOutput(repoRoot string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoRoot

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	return string(output), nil
}

// hashString computes SHA256 hash of a string
func hashString(s string) string {
	if s == "" {
		return EmptyHash
	}
	h := sha256.New()
	h.Write([]byte(s))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func computeRepoStateID(headCommit, statusHash string) string {
	return hashString(headCommit + ":" + statusHash)
}

// IsGitRepository checks if the given path is inside a git work tree
func IsGitRepository(path string) bool {
	out, err := gitOutput(path, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// GetRepoRoot finds the git work tree root from the given directory
func GetRepoRoot(startPath string) (string, error) {
	output, err := gitOutput(startPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", notARepo(err)
	}

	return strings.TrimSpace(output), nil
}

func notARepo(cause error) error {
	return errors.New(errors.NoBackingStore, "Not a git repository", cause)
}
