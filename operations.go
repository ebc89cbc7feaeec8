package update

import "path/filepath"

// ContentOperation runs against a freshly extracted update directory before
// it is committed into place, e.g. to flatten a packaged archive layout or
// install a start menu shortcut.
type ContentOperation interface {
	Apply(extractedDir string) error
}

type contentOperationFunc func(extractedDir string) error

func (f contentOperationFunc) Apply(extractedDir string) error { return f(extractedDir) }

// FlattenExtractedDirectory collapses an extracted archive whose contents
// sit inside a single wrapping directory (a common pattern for tarballs and
// zips produced by GitHub's "Source code" convention) up one level.
func FlattenExtractedDirectory() ContentOperation {
	return contentOperationFunc(func(extractedDir string) error {
		ok, err := flattenRootDirectory(extractedDir)
		if err != nil {
			return wrapErr(ExtractionError, "failed to flatten extracted directory", err)
		}
		if !ok {
			return wrapErr(ExtractionError, "extracted directory did not have a single wrapping directory", nil)
		}
		return nil
	})
}

// IgnoreFailure wraps op so that any error it returns is logged as a
// warning and swallowed rather than aborting the update.
func IgnoreFailure(op ContentOperation) ContentOperation {
	return contentOperationFunc(func(extractedDir string) error {
		if err := op.Apply(extractedDir); err != nil {
			Logger().Warnf("ignoring content operation failure: %v", err)
		}
		return nil
	})
}

// CreateStartMenuShortcut installs (or, with OnlyUpdate, refreshes) a start
// menu shortcut pointing at targetExecutable, which is resolved relative to
// the extracted directory if given as a relative path. CategoryName, if
// non-empty, places the shortcut in a start menu subfolder. It delegates to
// the platform-specific createStartMenuEntry, which is a no-op outside
// Windows.
type CreateStartMenuShortcut struct {
	TargetExecutable string
	LinkName         string
	CategoryName     string
	OnlyUpdate       bool
}

func (op *CreateStartMenuShortcut) Apply(extractedDir string) error {
	if op.LinkName == "" {
		return wrapErr(Misconfigured, "shortcut link name cannot be empty", nil)
	}
	target := op.TargetExecutable
	if !filepath.IsAbs(target) {
		target = filepath.Join(extractedDir, target)
	}
	if op.OnlyUpdate && !hasStartMenuEntry(target, op.LinkName, op.CategoryName) {
		return nil
	}
	return createStartMenuEntry(target, op.LinkName, op.CategoryName)
}
