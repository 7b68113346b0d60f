//go:build windows

package index

import (
	"os"
	"strconv"

	"yt/internal/errors"
)

// tryLock uses exclusive creation of the lock file. A lock left behind by a
// crashed process has to be removed by hand.
func tryLock(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if os.IsExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(errors.IOFailure, "failed to open lock file", err)
	}
	_, _ = file.WriteString(strconv.Itoa(os.Getpid()))
	return &Lock{path: path, file: file}, nil
}

// Release removes the lock file. It is safe on a nil Lock.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
}
