package update

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHostPath(t *testing.T) {
	host, path := splitHostPath("https://example.com/a/b.zip")
	assert.Equal(t, "https://example.com", host)
	assert.Equal(t, "/a/b.zip", path)

	host, path = splitHostPath("https://example.com")
	assert.Equal(t, "https://example.com", host)
	assert.Equal(t, "", path)
}

func TestStripLeadingSlash(t *testing.T) {
	assert.Equal(t, "a/b", stripLeadingSlash("///a/b"))
	assert.Equal(t, "a/b", stripLeadingSlash("a/b"))
}

func TestRandomName_UniqueAndFilesystemSafe(t *testing.T) {
	a := randomName()
	b := randomName()
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "-")
}

func TestWriteFileAtomic_ReadersNeverSeePartialContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "f.txt")
	require.NoError(t, writeFileAtomic(path, []byte("payload")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp file should remain")
}

func TestIsSubpath(t *testing.T) {
	assert.True(t, isSubpath("/a/b/c", "/a/b"))
	assert.True(t, isSubpath("/a/b", "/a/b"))
	assert.False(t, isSubpath("/a/c", "/a/b"))
	assert.False(t, isSubpath("/a", "/a/b"))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	dst := filepath.Join(dir, "sub", "dst.txt")
	require.NoError(t, copyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestMoveTree_FileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "nested", "f.txt"), []byte("x"), 0o644))

	dstDir := filepath.Join(dir, "dst")
	require.NoError(t, moveTree(srcDir, dstDir))

	_, err := os.Stat(srcDir)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(dstDir, "nested", "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestFlattenRootDirectory_SingleSubdir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "app-1.2.3")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "bin.exe"), []byte("x"), 0o644))

	flattened, err := flattenRootDirectory(dir)
	require.NoError(t, err)
	assert.True(t, flattened)

	_, err = os.Stat(filepath.Join(dir, "bin.exe"))
	assert.NoError(t, err)
	_, err = os.Stat(sub)
	assert.True(t, os.IsNotExist(err))
}

func TestFlattenRootDirectory_MultipleEntriesNoOp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("y"), 0o644))

	flattened, err := flattenRootDirectory(dir)
	require.NoError(t, err)
	assert.False(t, flattened)
}

func TestFlattenRootDirectory_SingleFileNoOp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	flattened, err := flattenRootDirectory(dir)
	require.NoError(t, err)
	assert.False(t, flattened)
}
