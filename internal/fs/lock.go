// Package fs provides advisory file locking on top of flock(2).
//
// flock is advisory and applies to an inode (an open file), not a
// pathname. All cooperating processes must take the lock for it to have
// effect. To lock a logical resource, use a dedicated lock file that is
// stable on disk (for example "user_constituents.lock") and do not
// replace or unlink it while locks may be held.
//
// This implementation is Unix-only.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned when a lock cannot be acquired without
// waiting. It is returned by [TryLock] when the lock is held by another
// process, and by [LockWithTimeout] when the acquisition timeout expires.
var ErrWouldBlock = errors.New("lock would block")

// errInodeMismatch is an internal sentinel indicating the lock file was
// replaced between open and flock. Callers retry.
var errInodeMismatch = errors.New("inode mismatch")

const (
	lockFilePerm = 0o600
	lockDirPerm  = 0o755

	maxBackoff = 25 * time.Millisecond
)

// Lock represents a held exclusive file lock. Call [Lock.Close] to
// release it. If the process dies while holding it, the kernel releases
// the flock when the file descriptor is closed; no explicit cleanup
// signaling is needed.
type Lock struct {
	file *os.File
}

// Close releases the lock and closes the underlying file descriptor.
// Close is idempotent; subsequent calls return nil.
//
// Closing a descriptor releases any flock held through it, so even if
// the explicit unlock fails the lock is normally gone once the close
// succeeds. If both fail, the returned error wraps both.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}

	fd := int(l.file.Fd())

	unlockErr := flockRetryEINTR(fd, unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking lock: %w", unlockErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return errors.Join(unlockErr, closeErr)
}

// LockFile acquires an exclusive lock on the file at path, blocking
// until the lock is available. The file and its parent directories are
// created lazily.
//
// This blocks in the kernel with no timeout and can wait indefinitely
// while another process holds the lock. Use [LockWithTimeout] or
// [TryLock] to bound the wait.
//
// Races where the lock file is replaced (deleted and recreated) during
// acquisition are handled by verifying, after flock succeeds, that the
// locked descriptor still refers to the inode currently at path; on
// mismatch the acquisition is retried on the new inode.
func LockFile(path string) (*Lock, error) {
	for {
		file, err := openLockFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening lockfile: %w", err)
		}

		err = acquire(file, path, true)
		if err == nil {
			return &Lock{file: file}, nil
		}

		_ = file.Close()

		if errors.Is(err, errInodeMismatch) {
			continue
		}

		return nil, err
	}
}

// TryLock attempts to acquire an exclusive lock without blocking.
// Returns [ErrWouldBlock] if the lock is held elsewhere.
func TryLock(path string) (*Lock, error) {
	lock, err := tryOnce(path)
	if err == nil {
		return lock, nil
	}

	if errors.Is(err, errInodeMismatch) {
		return nil, fmt.Errorf("%w: lock file was replaced while acquiring lock", ErrWouldBlock)
	}

	return nil, err
}

// LockWithTimeout attempts to acquire an exclusive lock, retrying with
// exponential backoff (1ms to 25ms) until the timeout expires.
//
// The timeout is best-effort: the method polls and sleeps, so it may
// overshoot slightly under scheduler delay. Returns an error satisfying
// errors.Is with [ErrWouldBlock] if the timeout expires first.
func LockWithTimeout(path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid lock timeout %s: must be > 0", timeout)
	}

	deadline := time.Now().Add(timeout)
	backoff := time.Millisecond

	for {
		lock, err := tryOnce(path)
		if err == nil {
			return lock, nil
		}

		if !errors.Is(err, ErrWouldBlock) && !errors.Is(err, errInodeMismatch) {
			return nil, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: timed out after %s", ErrWouldBlock, timeout)
		}

		time.Sleep(min(backoff, remaining))

		if backoff < maxBackoff {
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

func tryOnce(path string) (*Lock, error) {
	file, err := openLockFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening lockfile: %w", err)
	}

	err = acquire(file, path, false)
	if err != nil {
		_ = file.Close()

		return nil, err
	}

	return &Lock{file: file}, nil
}

// acquire flocks file and verifies the inode still matches path. On
// failure the file is unlocked if needed but NOT closed; the caller
// closes it.
//
// Returns nil on success, [ErrWouldBlock] when non-blocking and held
// elsewhere, errInodeMismatch when the file at path was replaced.
func acquire(file *os.File, path string, blocking bool) error {
	fd := int(file.Fd())

	how := unix.LOCK_EX
	if !blocking {
		how |= unix.LOCK_NB
	}

	if err := flockRetryEINTR(fd, how); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return ErrWouldBlock
		}

		return fmt.Errorf("flock: %w", err)
	}

	match, err := inodeMatchesPath(path, file)
	if err != nil {
		_ = flockRetryEINTR(fd, unix.LOCK_UN)

		if errors.Is(err, os.ErrNotExist) {
			return errInodeMismatch
		}

		return fmt.Errorf("verifying inode match: %w", err)
	}

	if !match {
		_ = flockRetryEINTR(fd, unix.LOCK_UN)

		return errInodeMismatch
	}

	return nil
}

func openLockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, lockFilePerm)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return f, err
	}

	if err := os.MkdirAll(filepath.Dir(path), lockDirPerm); err != nil {
		return nil, err
	}

	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, lockFilePerm)
}

// inodeMatchesPath verifies that f (the descriptor just flocked) still
// refers to the file currently at path.
//
// flock locks by inode, not pathname. If the lock file is deleted and
// recreated while a caller is blocked in flock, two processes can each
// hold a lock on a different inode and both believe they locked the
// path. Comparing (dev, inode) of the open descriptor against the
// current file at path closes that window; on mismatch the caller
// unlocks and retries.
func inodeMatchesPath(path string, f *os.File) (bool, error) {
	var openStat unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &openStat); err != nil {
		return false, fmt.Errorf("fstat lock file: %w", err)
	}

	var pathStat unix.Stat_t
	if err := unix.Stat(path, &pathStat); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return false, os.ErrNotExist
		}

		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	return openStat.Dev == pathStat.Dev && openStat.Ino == pathStat.Ino, nil
}

// flockRetryEINTR wraps flock, retrying on EINTR.
//
// Signals like SIGWINCH or SIGCHLD can interrupt a blocking syscall;
// the call did not fail, it just needs to be retried. Retries are capped
// to avoid spinning forever under a pathological signal storm.
func flockRetryEINTR(fd int, how int) error {
	const maxEINTRRetries = 10000

	var err error
	for i := 0; i < maxEINTRRetries; i++ {
		err = unix.Flock(fd, how)
		if err == nil || !errors.Is(err, unix.EINTR) {
			return err
		}
	}

	return err
}
