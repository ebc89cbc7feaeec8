package update

import "os"

// State is the outcome of resolving the latest release against the current
// version.
type State int

const (
	// UpToDate means the resolved version equals the current version.
	UpToDate State = iota
	// UpdateAlreadyInstalled means a matching version is already staged
	// in the working directory.
	UpdateAlreadyInstalled
	// NewVersionAvailable means a strictly newer version was resolved.
	NewVersionAvailable
	// LatestIsOlder means the resolved version is older than current,
	// which is diagnostically useful (clock skew, rollback) even though
	// callers otherwise treat it like UpToDate.
	LatestIsOlder
)

func (s State) String() string {
	switch s {
	case UpToDate:
		return "up to date"
	case UpdateAlreadyInstalled:
		return "update already installed"
	case NewVersionAvailable:
		return "new version available"
	case LatestIsOlder:
		return "latest is older"
	default:
		return "unknown state"
	}
}

// UpdateInfo describes the result of resolving the latest release.
type UpdateInfo struct {
	State   State
	Version VersionNumber
	URL     FileURL
}

// ArchiveType selects the extraction algorithm used by Pipeline.
type ArchiveType int

const (
	// ArchiveUnknown means no archive type has been configured.
	ArchiveUnknown ArchiveType = iota
	// ArchiveZip selects the ZIP extractor.
	ArchiveZip
)

// DownloadedFile is a file fetched by Downloader: an absolute path on
// local disk plus a way to read its contents.
type DownloadedFile struct {
	path string
}

// NewDownloadedFile wraps an absolute path as a DownloadedFile.
func NewDownloadedFile(path string) DownloadedFile {
	return DownloadedFile{path: path}
}

// Path returns the absolute path to the file on local disk.
func (f DownloadedFile) Path() string { return f.path }

// Read reads the entire file into memory.
func (f DownloadedFile) Read() ([]byte, error) {
	return os.ReadFile(f.path)
}
