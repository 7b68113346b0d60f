package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"yt/internal/errors"
)

const lockFile = "index.lock"

// pollInterval is how often a contended lock is retried.
const pollInterval = 25 * time.Millisecond

// Lock is an exclusive lock on the index file.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the index lock in dir, retrying until timeout elapses.
// A zero timeout tries once.
func AcquireLock(ctx context.Context, dir string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New(errors.IOFailure, "failed to create lock directory", err)
	}
	path := filepath.Join(dir, lockFile)

	deadline := time.Now().Add(timeout)
	for {
		l, err := tryLock(path)
		if err != nil {
			return nil, err
		}
		if l != nil {
			return l, nil
		}
		if !time.Now().Before(deadline) {
			return nil, lockedError(path)
		}
		select {
		case <-ctx.Done():
			return nil, errors.New(errors.Timeout, "cancelled while waiting for index lock", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func lockedError(path string) error {
	msg := "index is locked by another process"
	if content, err := os.ReadFile(path); err == nil {
		if pid := strings.TrimSpace(string(content)); pid != "" {
			msg += " (PID " + pid + ")"
		}
	}
	return errors.New(errors.Locked, msg, nil).WithDetails(map[string]string{"lockFile": path})
}
