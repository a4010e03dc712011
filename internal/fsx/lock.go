package fsx

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrLockHeld indicates another process already holds the lock.
//
// Recovery: retry later, or tell the operator another recstore process is
// using the file.
var ErrLockHeld = errors.New("fsx: lock held by another process")

// Lock is an advisory, exclusive, process-wide file lock on a sidecar
// ".lock" file next to a store's data file.
//
// cmd/recstore takes a Lock before opening a store file for writing so that
// two REPL instances don't race on the same file; the block/record layers
// themselves have no concurrency control of their own and assume
// single-thread-at-a-time access.
type Lock struct {
	file *os.File
	path string
}

// LockPath acquires an exclusive advisory lock on path, creating it if
// necessary. Returns [ErrLockHeld] if another process already holds it.
//
// Retries flock on EINTR and verifies the locked file still matches the
// path by inode after acquiring, since another process may have unlinked
// and recreated the lock file between our open and our flock call.
func LockPath(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fsx: open lock file %q: %w", path, err)
	}

	if err := flockRetryEINTR(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLockHeld
		}
		return nil, fmt.Errorf("fsx: flock %q: %w", path, err)
	}

	if !inodeMatchesPath(f, path) {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		return nil, fmt.Errorf("fsx: lock file %q was replaced concurrently", path)
	}

	return &Lock{file: f, path: path}, nil
}

// TryLock is an alias for [LockPath] kept for callers that want the
// non-blocking intent to read clearly at the call site; flock is always
// taken non-blocking here, with no support for a blocking wait or timeout.
func TryLock(path string) (*Lock, error) {
	return LockPath(path)
}

// Close releases the lock and closes the underlying file descriptor.
// Idempotent.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}

func flockRetryEINTR(fd int, how int) error {
	for {
		err := unix.Flock(fd, how)
		if err == nil {
			return nil
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		return err
	}
}

// inodeMatchesPath guards against a TOCTOU race where the lock file at path
// was removed and recreated between our Open and our Flock calls, which
// would let us believe we hold a lock on a file nobody else can see anymore.
func inodeMatchesPath(f *os.File, path string) bool {
	fInfo, err := f.Stat()
	if err != nil {
		return false
	}
	pathInfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(fInfo, pathInfo)
}
