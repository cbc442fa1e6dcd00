package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLockTimeout is returned when the write lock could not be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for write lock")

const lockRetryInterval = 10 * time.Millisecond

// fileLock is a cross-process mutex backed by the exclusive creation of a
// lock file.
type fileLock struct {
	path    string
	timeout time.Duration
}

func newFileLock(dir, name string, timeout time.Duration) *fileLock {
	return &fileLock{path: filepath.Join(dir, name), timeout: timeout}
}

// Lock blocks until the lock file is created, ctx is done, or the timeout
// elapses. The returned func releases the lock.
func (l *fileLock) Lock(ctx context.Context) (func(), error) {
	var timeout <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(l.path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, l.path)
		case <-time.After(lockRetryInterval):
		}
	}
}
