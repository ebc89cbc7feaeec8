//go:build windows

package update

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/sys/windows"
)

// programsPath resolves the current user's start menu Programs folder via
// the shell's well-known folder API.
func programsPath() (string, error) {
	return windows.KnownFolderPath(windows.FOLDERID_Programs, 0)
}

func linkPath(linkName, categoryName string) (string, error) {
	if strings.ContainsAny(linkName, `/\`) {
		return "", wrapErr(Misconfigured, "start menu link name cannot have a parent path", nil)
	}
	if strings.ContainsAny(categoryName, `/\`) {
		return "", wrapErr(Misconfigured, "start menu category cannot have a parent path", nil)
	}
	dir, err := programsPath()
	if err != nil {
		return "", wrapErr(Misconfigured, "failed to resolve start menu folder", err)
	}
	if categoryName != "" {
		dir = filepath.Join(dir, categoryName)
	}
	return filepath.Join(dir, linkName+".lnk"), nil
}

// hasStartMenuEntry reports whether a shortcut with the given name and
// category already exists.
func hasStartMenuEntry(targetPath, linkName, categoryName string) bool {
	path, err := linkPath(linkName, categoryName)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// createStartMenuEntry creates (replacing any existing) a .lnk shortcut to
// targetPath under the start menu Programs folder, via the shell's
// IShellLink COM object.
func createStartMenuEntry(targetPath, linkName, categoryName string) error {
	path, err := linkPath(linkName, categoryName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapErr(Misconfigured, "failed to create start menu folder", err)
	}
	os.Remove(path)

	if err := ole.CoInitialize(0); err != nil {
		return wrapErr(Misconfigured, "failed to initialize COM", err)
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return wrapErr(Misconfigured, "failed to create shell object", err)
	}
	defer unknown.Release()
	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return wrapErr(Misconfigured, "failed to query shell dispatch interface", err)
	}
	defer shell.Release()

	linkObj, err := oleutil.CallMethod(shell, "CreateShortcut", path)
	if err != nil {
		return wrapErr(Misconfigured, "failed to create shortcut object", err)
	}
	link := linkObj.ToIDispatch()
	defer link.Release()

	if _, err := oleutil.PutProperty(link, "TargetPath", targetPath); err != nil {
		return wrapErr(Misconfigured, "failed to set shortcut target", err)
	}
	if _, err := oleutil.PutProperty(link, "WorkingDirectory", filepath.Dir(targetPath)); err != nil {
		return wrapErr(Misconfigured, "failed to set shortcut working directory", err)
	}
	if _, err := oleutil.CallMethod(link, "Save"); err != nil {
		return wrapErr(Misconfigured, "failed to save shortcut", err)
	}
	return nil
}
