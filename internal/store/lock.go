package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// LockFilename is the seed lock file created inside a data directory.
const LockFilename = "seed.lock"

// ErrLockTimeout indicates the seed lock was not acquired in time
var ErrLockTimeout = errors.New("seed lock acquisition timed out")

// SeedLock serializes seeding of one data directory across processes using
// flock(2). The kernel drops the lock when the holder exits.
type SeedLock struct {
	path string
	file *os.File
}

// LockDir takes the seed lock of dir, polling with backoff until it is free,
// timeout expires or ctx is canceled.
func LockDir(ctx context.Context, dir string, timeout time.Duration) (*SeedLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dir, LockFilename)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	backoff := 10 * time.Millisecond
	for {
		err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return &SeedLock{path: path, file: file}, nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			_ = file.Close()
			return nil, fmt.Errorf("flock failed: %w", err)
		}
		if time.Now().After(deadline) {
			_ = file.Close()
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			_ = file.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff = min(backoff*2, 500*time.Millisecond)
		}
	}
}

// Path returns the lock file path.
func (l *SeedLock) Path() string {
	return l.path
}

// Unlock releases the lock. Calling it again is a no-op.
func (l *SeedLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	return closeErr
}
