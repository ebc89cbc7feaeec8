package update

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLauncher_CopyTo_ExecutableAndDependencies(t *testing.T) {
	src := t.TempDir()
	exe := filepath.Join(src, "launcher")
	require.NoError(t, os.WriteFile(exe, []byte("binary"), 0o644))
	dep := filepath.Join(src, "libfoo.so")
	require.NoError(t, os.WriteFile(dep, []byte("lib"), 0o644))
	missing := filepath.Join(src, "optional.dll")

	dst := t.TempDir()
	l := Launcher{Executable: exe, DependentFiles: []string{dep, missing}}
	staged, err := l.CopyTo(dst)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dst, "launcher"), staged)

	info, err := os.Stat(staged)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(dst, "libfoo.so"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dst, "optional.dll"))
	assert.True(t, os.IsNotExist(err), "a missing dependent file must be skipped, not an error")
}

func TestLauncher_CopyTo_RequiresExecutable(t *testing.T) {
	_, err := Launcher{}.CopyTo(t.TempDir())
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, Misconfigured, kind)
}
