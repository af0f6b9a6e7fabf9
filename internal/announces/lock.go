package announces

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const (
	// LockFilename is the name of the index writer lock file
	LockFilename = "index.lock"

	minLockPoll = 10 * time.Millisecond
	maxLockPoll = 500 * time.Millisecond
)

// ErrLockTimeout indicates another process kept the index lock past the timeout
var ErrLockTimeout = errors.New("index lock acquisition timed out")

// IndexLock guards the index directory against concurrent writers in other
// processes using flock(2). The kernel releases it if the process dies.
type IndexLock struct {
	path string
	file *os.File
}

// NewIndexLock creates a lock for the given index directory.
func NewIndexLock(dir string) *IndexLock {
	return &IndexLock{path: filepath.Join(dir, LockFilename)}
}

// TryAcquire takes the lock without waiting. It returns false when another
// process holds it.
func (l *IndexLock) TryAcquire() (bool, error) {
	if err := l.open(); err != nil {
		return false, err
	}

	ok, err := l.flock()
	if !ok {
		l.closeFile()
	}
	return ok, err
}

// Acquire waits for the lock until timeout expires or ctx is canceled.
func (l *IndexLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := l.open(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	poll := minLockPoll
	for {
		ok, err := l.flock()
		if err != nil {
			l.closeFile()
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			l.closeFile()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrLockTimeout
			}
			return ctx.Err()
		case <-time.After(poll):
			poll = min(poll*2, maxLockPoll)
		}
	}
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *IndexLock) Release() error {
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

// Held reports whether this instance holds the lock.
func (l *IndexLock) Held() bool {
	return l.file != nil
}

// Path returns the lock file path.
func (l *IndexLock) Path() string {
	return l.path
}

// flock makes one non-blocking attempt. Contention is not an error.
func (l *IndexLock) flock() (bool, error) {
	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return false, nil
	}
	return false, fmt.Errorf("flock failed: %w", err)
}

func (l *IndexLock) open() error {
	if l.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	l.file = file
	return nil
}

func (l *IndexLock) closeFile() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}
