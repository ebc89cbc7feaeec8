//go:build unix

package update

import (
	"os"

	"golang.org/x/sys/unix"
)

// directoryLock is a cross-process mutex held by an open file descriptor on
// a well-known lock file inside the working directory. It is the only
// mechanism that coordinates concurrent Manager instances, possibly from
// different processes, against the same working directory.
type directoryLock struct {
	file *os.File
}

// acquireDirectoryLock opens (creating if needed) the lock file at path and
// attempts a non-blocking exclusive flock. If another process already
// holds it, it returns a LockContended error instead of blocking.
func acquireDirectoryLock(path string) (*directoryLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, wrapErr(Misconfigured, "failed to open lock file "+path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, wrapErr(LockContended, "working directory is locked by another process", nil)
		}
		return nil, wrapErr(Misconfigured, "failed to lock "+path, err)
	}
	return &directoryLock{file: f}, nil
}

// Release unlocks the flock and closes the underlying file descriptor. Safe
// to call multiple times.
func (l *directoryLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
