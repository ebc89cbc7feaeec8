package update

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, workingDir string, version VersionNumber) *Manager {
	t.Helper()
	m, err := NewManager(workingDir, version)
	require.NoError(t, err)
	t.Cleanup(func() { m.ReleaseLock() })
	return m
}

func TestManager_AcquireLock_ContendedBySecondManager(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))
	assert.True(t, m.HasLock())

	_, err := NewManager(dir, mustVersion(t, "1.0.0"))
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, LockContended, kind)
}

func TestManager_ReleaseLock_AllowsReacquisition(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))
	require.NoError(t, m.ReleaseLock())
	assert.False(t, m.HasLock())

	m2 := newTestManager(t, dir, mustVersion(t, "1.0.0"))
	assert.True(t, m2.HasLock())
}

func TestManager_LatestAvailableUpdate_ExcludesCurrentAndTmp(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))

	cur := filepath.Join(dir, CurrentDirName)
	require.NoError(t, os.MkdirAll(cur, 0o755))
	require.NoError(t, WriteSentinel(cur, mustVersion(t, "1.0.0")))

	tmp := filepath.Join(dir, ".tmp", "staging")
	require.NoError(t, os.MkdirAll(tmp, 0o755))
	require.NoError(t, WriteSentinel(tmp, mustVersion(t, "9.9.9")))

	upd := filepath.Join(dir, "2.0.0")
	require.NoError(t, os.MkdirAll(upd, 0o755))
	require.NoError(t, WriteSentinel(upd, mustVersion(t, "2.0.0")))

	version, path, ok := m.LatestAvailableUpdate()
	require.True(t, ok)
	assert.Equal(t, "2.0.0", version.String())
	assert.Equal(t, upd, path)
}

func TestManager_Prune_KeepsCurrentAndLatest(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))

	cur := filepath.Join(dir, CurrentDirName)
	require.NoError(t, os.MkdirAll(cur, 0o755))
	require.NoError(t, WriteSentinel(cur, mustVersion(t, "1.0.0")))

	latest := filepath.Join(dir, "2.0.0")
	require.NoError(t, os.MkdirAll(latest, 0o755))
	require.NoError(t, WriteSentinel(latest, mustVersion(t, "2.0.0")))

	stale := filepath.Join(dir, "1.5.0")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, WriteSentinel(stale, mustVersion(t, "1.5.0")))

	require.NoError(t, m.Prune())

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale version directories must be removed")
	_, err = os.Stat(cur)
	assert.NoError(t, err)
	_, err = os.Stat(latest)
	assert.NoError(t, err)
}

func TestManager_ApplyLatest_CommitsViaRename(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))

	cur := filepath.Join(dir, CurrentDirName)
	require.NoError(t, os.MkdirAll(cur, 0o755))
	require.NoError(t, WriteSentinel(cur, mustVersion(t, "1.0.0")))
	require.NoError(t, os.WriteFile(filepath.Join(cur, "old.txt"), []byte("old"), 0o644))

	upd := filepath.Join(dir, "2.0.0")
	require.NoError(t, os.MkdirAll(upd, 0o755))
	require.NoError(t, WriteSentinel(upd, mustVersion(t, "2.0.0")))
	require.NoError(t, os.WriteFile(filepath.Join(upd, "new.txt"), []byte("new"), 0o644))

	version, ok, err := m.ApplyLatest(context.Background(), false, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2.0.0", version.String())

	_, err = os.Stat(filepath.Join(cur, "new.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cur, "old.txt"))
	assert.True(t, os.IsNotExist(err), "the prior current directory's contents must not survive the commit")
	_, err = os.Stat(upd)
	assert.True(t, os.IsNotExist(err), "the staged update directory is consumed by the rename")
}

func TestManager_ApplyLatest_RetainedFileSurvivesWhenAbsentFromUpdate(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))
	require.NoError(t, m.SetRetainedPaths([]string{"config.yaml"}))

	cur := filepath.Join(dir, CurrentDirName)
	require.NoError(t, os.MkdirAll(cur, 0o755))
	require.NoError(t, WriteSentinel(cur, mustVersion(t, "1.0.0")))
	require.NoError(t, os.WriteFile(filepath.Join(cur, "config.yaml"), []byte("user settings"), 0o644))

	upd := filepath.Join(dir, "2.0.0")
	require.NoError(t, os.MkdirAll(upd, 0o755))
	require.NoError(t, WriteSentinel(upd, mustVersion(t, "2.0.0")))

	_, ok, err := m.ApplyLatest(context.Background(), false, 0)
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(filepath.Join(cur, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "user settings", string(data))
}

func TestManager_ApplyLatest_UpdateFileWinsOverRetainedFile(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))
	require.NoError(t, m.SetRetainedPaths([]string{"config.yaml"}))

	cur := filepath.Join(dir, CurrentDirName)
	require.NoError(t, os.MkdirAll(cur, 0o755))
	require.NoError(t, WriteSentinel(cur, mustVersion(t, "1.0.0")))
	require.NoError(t, os.WriteFile(filepath.Join(cur, "config.yaml"), []byte("old settings"), 0o644))

	upd := filepath.Join(dir, "2.0.0")
	require.NoError(t, os.MkdirAll(upd, 0o755))
	require.NoError(t, WriteSentinel(upd, mustVersion(t, "2.0.0")))
	require.NoError(t, os.WriteFile(filepath.Join(upd, "config.yaml"), []byte("new defaults"), 0o644))

	_, ok, err := m.ApplyLatest(context.Background(), false, 0)
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(filepath.Join(cur, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "new defaults", string(data), "the staged update's file must win over a retained file")
}

func TestManager_ApplyLatest_NoUpdateAvailable(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))

	_, ok, err := m.ApplyLatest(context.Background(), false, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_SetRetainedPaths_RejectsAbsolute(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))
	err := m.SetRetainedPaths([]string{"/etc/passwd"})
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, Misconfigured, kind)
}

func TestManager_StartLatest_RejectsAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))
	err := m.StartLatest("/abs/main", nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, Misconfigured, kind)
}

func TestManager_LaunchLatest_NoLauncherExecutable(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))
	upd := filepath.Join(dir, "2.0.0")
	require.NoError(t, os.MkdirAll(upd, 0o755))
	require.NoError(t, WriteSentinel(upd, mustVersion(t, "2.0.0")))

	_, err := m.LaunchLatest(Launcher{}, nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, Misconfigured, kind)
}

func TestManager_LaunchLatest_NoNewerVersionIsNoOp(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir, mustVersion(t, "1.0.0"))
	launched, err := m.LaunchLatest(Launcher{Executable: os.Args[0]}, nil)
	require.NoError(t, err)
	assert.False(t, launched)
	assert.True(t, m.HasLock(), "the lock must stay held when nothing is launched")
}
