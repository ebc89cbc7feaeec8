package update

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// SentinelFilename is the name of the tiny key=value text file that marks a
// version directory as complete and valid.
const SentinelFilename = ".sentinel"

// WriteSentinel persists "version=<string>" into dir/.sentinel atomically.
func WriteSentinel(dir string, version VersionNumber) error {
	content := "version=" + version.String() + "\n"
	return writeFileAtomic(filepath.Join(dir, SentinelFilename), []byte(content))
}

// ReadSentinel returns the parsed version from dir/.sentinel, and false if
// the file is missing, unreadable, unparseable, or lacks a version key. It
// never returns an error.
func ReadSentinel(dir string) (VersionNumber, bool) {
	data, err := os.ReadFile(filepath.Join(dir, SentinelFilename))
	if err != nil {
		return VersionNumber{}, false
	}
	version, ok := parseSentinel(data)
	if !ok {
		return VersionNumber{}, false
	}
	return version, true
}

func parseSentinel(data []byte) (VersionNumber, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		if key != "version" {
			continue
		}
		version, err := ParseVersionNumber(value, "")
		if err != nil {
			continue
		}
		return version, true
	}
	return VersionNumber{}, false
}

// isValidVersionDir reports whether the directory at path name is a valid
// version directory: its base name parses as a version and the sentinel's
// version equals that parsed base name.
func isValidVersionDir(name string) (VersionNumber, bool) {
	fromName, err := ParseVersionNumber(filepath.Base(name), "")
	if err != nil {
		return VersionNumber{}, false
	}
	fromSentinel, ok := ReadSentinel(name)
	if !ok {
		return VersionNumber{}, false
	}
	if !fromName.Equal(fromSentinel) {
		return VersionNumber{}, false
	}
	return fromName, true
}

// EnumerateVersions scans the direct children of workingDir and returns the
// greatest valid version directory, or false if none exists. Two distinct
// children that represent equal versions (e.g. "2.1" and "2.1.0") collapse
// the result to false: the layout is inconsistent and the caller should
// re-download.
func EnumerateVersions(workingDir string) (VersionNumber, string, bool) {
	return enumerateVersions(workingDir, nil)
}

// enumerateVersions is EnumerateVersions with an optional exclude set of
// base names (used by Manager to exclude the current directory).
func enumerateVersions(workingDir string, exclude map[string]bool) (VersionNumber, string, bool) {
	entries, err := os.ReadDir(workingDir)
	if err != nil {
		return VersionNumber{}, "", false
	}
	var (
		best      VersionNumber
		bestPath  string
		haveBest  bool
		collision bool
		seen      []VersionNumber
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if exclude[name] {
			continue
		}
		path := filepath.Join(workingDir, name)
		version, ok := isValidVersionDir(path)
		if !ok {
			continue
		}
		for _, other := range seen {
			if version.Equal(other) {
				collision = true
			}
		}
		seen = append(seen, version)
		if !haveBest || version.Greater(best) {
			best, bestPath, haveBest = version, path, true
		}
	}
	if collision {
		return VersionNumber{}, "", false
	}
	if !haveBest {
		return VersionNumber{}, "", false
	}
	return best, bestPath, true
}
