//go:build windows

package update

import (
	"os"

	"golang.org/x/sys/windows"
)

// directoryLock is a cross-process mutex held by an open file handle on a
// well-known lock file inside the working directory, opened without
// FILE_SHARE_READ/WRITE so a second opener observes a sharing violation.
type directoryLock struct {
	handle windows.Handle
	path   string
}

// acquireDirectoryLock creates (or opens) the lock file at path with no
// sharing flags. A sharing violation from a concurrent holder is reported
// as LockContended.
func acquireDirectoryLock(path string) (*directoryLock, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, wrapErr(Misconfigured, "invalid lock path "+path, err)
	}
	handle, err := windows.CreateFile(pathPtr, windows.GENERIC_READ, 0, nil,
		windows.OPEN_ALWAYS, windows.FILE_ATTRIBUTE_NORMAL, 0)
	if err != nil {
		if err == windows.ERROR_SHARING_VIOLATION {
			return nil, wrapErr(LockContended, "working directory is locked by another process", nil)
		}
		return nil, wrapErr(Misconfigured, "failed to lock "+path, err)
	}
	return &directoryLock{handle: handle, path: path}, nil
}

// Release closes the lock file handle and removes the lock file. Safe to
// call multiple times.
func (l *directoryLock) Release() error {
	if l == nil || l.handle == windows.InvalidHandle {
		return nil
	}
	windows.CloseHandle(l.handle)
	l.handle = windows.InvalidHandle
	os.Remove(l.path)
	return nil
}
