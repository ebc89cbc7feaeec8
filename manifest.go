package update

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BuildSHA256Sums recursively hashes every regular file under rootDir
// (skipping the sentinel file and excludeNames) and returns manifest text
// in the SHA256SUMS format, suitable for signing and publishing alongside
// a release archive.
func BuildSHA256Sums(rootDir string, excludeNames ...string) (string, error) {
	exclude := map[string]bool{SentinelFilename: true}
	for _, name := range excludeNames {
		exclude[name] = true
	}

	var relPaths []string
	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		if exclude[rel] {
			return nil
		}
		relPaths = append(relPaths, rel)
		return nil
	})
	if err != nil {
		return "", wrapErr(Misconfigured, "failed to walk "+rootDir, err)
	}
	sort.Strings(relPaths)

	var b strings.Builder
	for _, rel := range relPaths {
		hash, err := sha256File(filepath.Join(rootDir, rel))
		if err != nil {
			return "", wrapErr(Misconfigured, "failed to hash "+rel, err)
		}
		b.WriteString(hash)
		b.WriteString(" *")
		b.WriteString(filepath.ToSlash(rel))
		b.WriteString("\n")
	}
	return b.String(), nil
}
