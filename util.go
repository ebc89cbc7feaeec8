package update

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// filepathSeparator is the native path separator as a byte, used by the
// sha256sum parser to normalize "/" in manifest paths.
const filepathSeparator = byte(filepath.Separator)

// splitHostPath splits the host and path components of a URL. A non-empty
// returned path starts with a slash; a URL with no path yields an empty
// path.
func splitHostPath(url string) (host, path string) {
	i := 0
	for i < len(url) {
		if url[i] == '/' && i+1 < len(url) && url[i+1] == '/' {
			// scheme separator
			i++
			i++
			continue
		}
		if url[i] == '/' {
			break
		}
		i++
	}
	host = url[:i]
	path = ensureNonEmptyPrefix(url[i:], '/')
	return host, path
}

// ensureNonEmptyPrefix prepends prefix to text if text is non-empty and
// does not already start with it.
func ensureNonEmptyPrefix(text string, prefix byte) string {
	if len(text) > 0 && text[0] != prefix {
		return string(prefix) + text
	}
	return text
}

// stripLeadingSlash removes any leading slashes from path.
func stripLeadingSlash(path string) string {
	return strings.TrimLeft(path, "/")
}

// randomName returns a short, unique, filesystem-safe name, used for
// scratch directories and launcher staging directories.
func randomName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// touchFile creates an empty file, creating parent directories as needed.
func touchFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// writeFileAtomic writes content to path by writing to a temp file in the
// same directory and renaming over the target, so readers never observe a
// partially written sentinel or lock.
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// isSubpath reports whether path is base or lies within base.
func isSubpath(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// regexContains reports whether pattern matches anywhere within s.
func regexContains(s string, pattern *regexp.Regexp) bool {
	return pattern.MatchString(s)
}

// copyFile copies src to dst, creating dst's parent directory as needed.
func copyFile(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// moveTree moves src to dst, preserving the relative location of src under
// dst's parent. It tries a rename first and falls back to copy-then-remove
// across filesystem/volume boundaries.
func moveTree(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyTree(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// copyTree recursively copies src to dst.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst)
	}
	if err := os.MkdirAll(dst, info.Mode()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// flattenRootDirectory collapses a single-directory root: iff dir contains
// exactly one entry and that entry is a directory, its contents are moved
// up a level and the now-empty child is removed. Returns false (without
// error) if dir did not have that shape.
func flattenRootDirectory(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return false, nil
	}
	subdir := filepath.Join(dir, entries[0].Name())
	staging := filepath.Join(dir, "."+randomName())
	if err := os.Rename(subdir, staging); err != nil {
		return false, err
	}
	children, err := os.ReadDir(staging)
	if err != nil {
		return false, err
	}
	for _, child := range children {
		if err := os.Rename(filepath.Join(staging, child.Name()), filepath.Join(dir, child.Name())); err != nil {
			return false, err
		}
	}
	if err := os.Remove(staging); err != nil {
		return false, err
	}
	return true, nil
}
