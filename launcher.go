package update

import (
	"os"
	"path/filepath"
)

// Launcher bundles the external launcher executable together with any
// library files it depends on, so LaunchLatest can stage a complete,
// self-sufficient copy in the working directory's .tmp folder, outside the
// version and current directories, before handing off.
type Launcher struct {
	Executable     string
	DependentFiles []string
}

// CopyTo stages the launcher into dir, creating it if necessary, and
// returns the staged executable's path. A dependent file missing from
// disk is skipped rather than treated as an error: not every platform or
// build ships every optional dependency.
func (l Launcher) CopyTo(dir string) (string, error) {
	if l.Executable == "" {
		return "", wrapErr(Misconfigured, "launcher executable not set", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", wrapErr(Misconfigured, "failed to create launcher staging directory", err)
	}
	dst := filepath.Join(dir, filepath.Base(l.Executable))
	if err := copyFile(l.Executable, dst); err != nil {
		return "", wrapErr(Misconfigured, "failed to stage launcher executable", err)
	}
	if err := os.Chmod(dst, 0o755); err != nil {
		return "", wrapErr(Misconfigured, "failed to make staged launcher executable", err)
	}
	for _, dep := range l.DependentFiles {
		if _, err := os.Stat(dep); err != nil {
			continue
		}
		if err := copyFile(dep, filepath.Join(dir, filepath.Base(dep))); err != nil {
			return "", wrapErr(Misconfigured, "failed to stage launcher dependency "+dep, err)
		}
	}
	return dst, nil
}
