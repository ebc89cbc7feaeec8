package update

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractArchive extracts archivePath (whose format is selected by kind)
// into targetDir, which must not already exist. Path traversal entries
// (an entry whose name escapes targetDir via "..") abort the extraction.
func ExtractArchive(kind ArchiveType, archivePath, targetDir string) error {
	switch kind {
	case ArchiveZip:
		return extractZip(archivePath, targetDir)
	default:
		return wrapErr(Misconfigured, "unsupported archive type", nil)
	}
}

func extractZip(archivePath, targetDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return wrapErr(ExtractionError, "failed to open zip file", err)
	}
	defer r.Close()

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return wrapErr(ExtractionError, "failed to create extraction directory", err)
	}

	for _, f := range r.File {
		dest := filepath.Join(targetDir, filepath.FromSlash(f.Name))
		if !isSubpath(dest, targetDir) {
			return wrapErr(ExtractionError, "zip entry escapes target directory: "+f.Name, nil)
		}
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return wrapErr(ExtractionError, "failed to create directory "+dest, err)
			}
			continue
		}
		if err := extractZipFile(f, dest); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, dest string) error {
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return wrapErr(ExtractionError, "failed to create directory "+dir, err)
		}
	}
	rc, err := f.Open()
	if err != nil {
		return wrapErr(ExtractionError, "failed to open zip entry "+f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return wrapErr(ExtractionError, "failed to create "+dest, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, rc); err != nil {
		return wrapErr(ExtractionError, "failed to write "+dest, err)
	}
	return nil
}
