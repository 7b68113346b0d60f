//go:build !windows

package index

import (
	"os"
	"strconv"
	"syscall"

	"yt/internal/errors"
)

// tryLock returns nil, nil when another process holds the lock.
func tryLock(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.New(errors.IOFailure, "failed to open lock file", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		return nil, nil
	}

	// The previous holder may have unlinked the file between our open and
	// flock; the lock only counts if path still names the file we hold.
	held, err := file.Stat()
	if err == nil {
		var onDisk os.FileInfo
		if onDisk, err = os.Stat(path); err == nil && !os.SameFile(held, onDisk) {
			err = os.ErrNotExist
		}
	}
	if err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, nil
	}

	if err := file.Truncate(0); err == nil {
		_, _ = file.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}
	return &Lock{path: path, file: file}, nil
}

// Release unlocks and removes the lock file. It is safe on a nil Lock.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = os.Remove(l.path)
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
