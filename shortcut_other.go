//go:build !windows

package update

// hasStartMenuEntry always reports false outside Windows: shortcuts are a
// Windows-only concept.
func hasStartMenuEntry(targetPath, linkName, categoryName string) bool {
	return false
}

// createStartMenuEntry is a no-op outside Windows.
func createStartMenuEntry(targetPath, linkName, categoryName string) error {
	return nil
}
