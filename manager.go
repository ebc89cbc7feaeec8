package update

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CurrentDirName is the default name of the distinguished subdirectory
// holding the promoted, running version.
const CurrentDirName = "current"

const lockFilename = "update.lock"

// Manager owns the working directory's on-disk layout: the lock file, the
// per-version subdirectories, and the distinguished current directory.
// Apart from Pipeline.Update, which commits new version directories into
// it, it is the only component that mutates the working directory's
// top-level structure.
type Manager struct {
	workingDir     string
	currentVersion VersionNumber
	currentDirName string
	retainedPaths  []string
	lock           *directoryLock
	exe            string
}

// NewManager constructs a Manager and immediately acquires the
// working-directory lock. currentVersion is the version of the
// already-running binary. Fails with LockContended if another process
// already holds the lock.
func NewManager(workingDir string, currentVersion VersionNumber) (*Manager, error) {
	if err := os.MkdirAll(workingDir, 0o755); err != nil {
		return nil, wrapErr(Misconfigured, "failed to create working directory", err)
	}
	exe, _ := os.Executable()
	m := &Manager{
		workingDir:     workingDir,
		currentVersion: currentVersion,
		currentDirName: CurrentDirName,
		exe:            exe,
	}
	if err := m.AcquireLock(); err != nil {
		return nil, err
	}
	m.healCurrentSentinel()
	return m, nil
}

// SetCurrentDirName overrides the name of the distinguished current
// directory (default "current").
func (m *Manager) SetCurrentDirName(name string) {
	m.currentDirName = name
}

// SetRetainedPaths declares relative paths that must survive apply_latest
// even if absent from the staged update. Absolute paths are rejected.
func (m *Manager) SetRetainedPaths(paths []string) error {
	for _, p := range paths {
		if filepath.IsAbs(p) {
			return wrapErr(Misconfigured, "retained path must be relative: "+p, nil)
		}
	}
	m.retainedPaths = paths
	return nil
}

func (m *Manager) currentDir() string {
	return filepath.Join(m.workingDir, m.currentDirName)
}

// AcquireLock acquires the working-directory lock, if not already held.
func (m *Manager) AcquireLock() error {
	if m.lock != nil {
		return nil
	}
	lock, err := acquireDirectoryLock(filepath.Join(m.workingDir, lockFilename))
	if err != nil {
		return err
	}
	m.lock = lock
	return nil
}

// ReleaseLock releases the working-directory lock, if held.
func (m *Manager) ReleaseLock() error {
	if m.lock == nil {
		return nil
	}
	err := m.lock.Release()
	m.lock = nil
	return err
}

// HasLock reports whether this Manager currently holds the working
// directory lock. Safe to call from another goroutine.
func (m *Manager) HasLock() bool {
	return m.lock != nil
}

// healCurrentSentinel rewrites the current directory's sentinel to match
// the Manager's current version if the running executable lives under the
// current directory, repairing a sentinel lost to a prior crash.
func (m *Manager) healCurrentSentinel() {
	if m.exe == "" {
		return
	}
	if !isSubpath(m.exe, m.currentDir()) {
		return
	}
	if _, err := os.Stat(m.currentDir()); err != nil {
		return
	}
	if err := WriteSentinel(m.currentDir(), m.currentVersion); err != nil {
		Logger().Warnf("failed to heal current sentinel: %v", err)
	}
}

// LatestAvailableUpdate scans the working directory, excluding the current
// directory, and returns the greatest staged version and its path.
func (m *Manager) LatestAvailableUpdate() (VersionNumber, string, bool) {
	return enumerateVersions(m.workingDir, map[string]bool{m.currentDirName: true, ".tmp": true})
}

// Unlink removes every child of the working directory except the lock file
// and the ancestor of the currently-executing process, terminating any
// process running from within each removed directory first.
func (m *Manager) Unlink(ctx context.Context, processTimeout time.Duration) error {
	entries, err := os.ReadDir(m.workingDir)
	if err != nil {
		return wrapErr(Misconfigured, "failed to list working directory", err)
	}
	exeAncestor := m.ancestorOfExecutable()
	for _, entry := range entries {
		name := entry.Name()
		if name == lockFilename {
			continue
		}
		if exeAncestor != "" && name == exeAncestor {
			continue
		}
		path := filepath.Join(m.workingDir, name)
		if entry.IsDir() {
			if err := TerminateProcessesUnder(ctx, path, processTimeout); err != nil {
				return err
			}
		}
		if err := os.RemoveAll(path); err != nil {
			return wrapErr(Misconfigured, "failed to remove "+path, err)
		}
	}
	return nil
}

// Prune removes every child of the working directory except the lock file,
// the current directory, the directory named after the current version,
// the latest available update, and the ancestor of the current process.
func (m *Manager) Prune() error {
	exclude := map[string]bool{
		lockFilename:          true,
		m.currentDirName:      true,
		m.currentVersion.String(): true,
	}
	if _, path, ok := m.LatestAvailableUpdate(); ok {
		exclude[filepath.Base(path)] = true
	}
	if ancestor := m.ancestorOfExecutable(); ancestor != "" {
		exclude[ancestor] = true
	}
	entries, err := os.ReadDir(m.workingDir)
	if err != nil {
		return wrapErr(Misconfigured, "failed to list working directory", err)
	}
	for _, entry := range entries {
		if exclude[entry.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.workingDir, entry.Name())); err != nil {
			return wrapErr(Misconfigured, "failed to remove "+entry.Name(), err)
		}
	}
	return nil
}

func (m *Manager) ancestorOfExecutable() string {
	if m.exe == "" {
		return ""
	}
	rel, err := filepath.Rel(m.workingDir, m.exe)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return parts[0]
}

// LaunchLatest decides whether a newer version is available and, if so,
// stages launcher into a fresh .tmp subdirectory, releases the lock, and
// starts the staged launcher binary as a detached process with args. It
// is called from the main process; after it returns true the caller
// should exit promptly.
func (m *Manager) LaunchLatest(launcher Launcher, args []string) (bool, error) {
	if !m.newerVersionAvailable() {
		return false, nil
	}

	staging := filepath.Join(m.workingDir, ".tmp", randomName())
	stagedLauncher, err := launcher.CopyTo(staging)
	if err != nil {
		os.RemoveAll(staging)
		return false, err
	}

	if err := m.ReleaseLock(); err != nil {
		return false, err
	}
	if err := startDetached(stagedLauncher, args); err != nil {
		return false, wrapErr(Misconfigured, "failed to start launcher", err)
	}
	return true, nil
}

func (m *Manager) newerVersionAvailable() bool {
	if version, _, ok := m.LatestAvailableUpdate(); ok && version.Greater(m.currentVersion) {
		return true
	}
	sentinelVersion, ok := ReadSentinel(m.currentDir())
	if !ok {
		return false
	}
	if !sentinelVersion.Greater(m.currentVersion) {
		return false
	}
	return !isSubpath(m.exe, m.currentDir())
}

// ApplyLatest promotes the latest staged update into the current
// directory, terminating running processes under both directories first
// (unless killProcesses is false), moving retained files, and committing
// via a single directory rename. It is called from the launcher process.
// Returns the newly current version, or false if no newer update exists.
func (m *Manager) ApplyLatest(ctx context.Context, killProcesses bool, processTimeout time.Duration) (VersionNumber, bool, error) {
	updateVersion, updatePath, ok := m.LatestAvailableUpdate()
	if !ok {
		return VersionNumber{}, false, nil
	}
	currentVersion, hasCurrent := ReadSentinel(m.currentDir())
	if hasCurrent && !updateVersion.Greater(currentVersion) {
		return VersionNumber{}, false, nil
	}

	if killProcesses {
		if hasCurrent {
			if err := TerminateProcessesUnder(ctx, m.currentDir(), processTimeout); err != nil {
				return VersionNumber{}, false, err
			}
		}
		if err := TerminateProcessesUnder(ctx, updatePath, processTimeout); err != nil {
			return VersionNumber{}, false, err
		}
	}

	if err := m.moveRetainedFiles(updatePath); err != nil {
		return VersionNumber{}, false, err
	}

	if hasCurrent {
		if err := os.RemoveAll(m.currentDir()); err != nil {
			return VersionNumber{}, false, wrapErr(Misconfigured, "failed to remove current directory", err)
		}
	}
	if err := os.Rename(updatePath, m.currentDir()); err != nil {
		return VersionNumber{}, false, wrapErr(Misconfigured, "failed to commit update directory", err)
	}
	m.currentVersion = updateVersion
	return updateVersion, true, nil
}

// moveRetainedFiles moves each declared retained path present under the
// current directory but absent under updatePath into updatePath, so it
// survives the commit rename. A retained path already present in the
// update is left untouched: the update wins.
func (m *Manager) moveRetainedFiles(updatePath string) error {
	for _, rel := range m.retainedPaths {
		src := filepath.Join(m.currentDir(), rel)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := filepath.Join(updatePath, rel)
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := moveTree(src, dst); err != nil {
			return wrapErr(Misconfigured, "failed to retain "+rel, err)
		}
	}
	return nil
}

// StartLatest launches mainExecutableRelative (relative to the current
// directory) as a detached process with args and releases the lock.
// Absolute paths are rejected.
func (m *Manager) StartLatest(mainExecutableRelative string, args []string) error {
	if filepath.IsAbs(mainExecutableRelative) {
		return wrapErr(Misconfigured, "main executable path must be relative", nil)
	}
	exe := filepath.Join(m.currentDir(), mainExecutableRelative)
	if err := m.ReleaseLock(); err != nil {
		return err
	}
	return startDetached(exe, args)
}
