package update

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
)

// Pipeline is the end-to-end composition of source discovery, download,
// verification, extraction, and commit. It owns a Manager for the
// on-disk layout and a Downloader for fetching and verifying artifacts.
type Pipeline struct {
	manager *Manager
	source  Source

	archiveType                ArchiveType
	downloadFilenamePattern    *regexp.Regexp
	downloadURLPattern         *regexp.Regexp
	filenameContainsVersionSet bool
	filenameContainsVersion    bool
	verifiers                  []Verifier
	contentOperations          []ContentOperation
	postUpdateOperations       []ContentOperation
	urlOverrides               map[string]func(VersionNumber) string
	scratchRoot                string
	client                     *http.Client

	activeDownloader atomic.Pointer[Downloader]
}

// NewPipeline constructs a Pipeline bound to manager.
func NewPipeline(manager *Manager) *Pipeline {
	return &Pipeline{
		manager:      manager,
		urlOverrides: map[string]func(VersionNumber) string{},
		scratchRoot:  os.TempDir(),
	}
}

// SetSource sets C2; if no URL pattern has been set explicitly, it is
// seeded from the source's own URLPattern.
func (p *Pipeline) SetSource(source Source) {
	p.source = source
	if p.downloadURLPattern == nil {
		p.downloadURLPattern = source.URLPattern()
	}
}

// SetArchiveType selects the extraction algorithm.
func (p *Pipeline) SetArchiveType(t ArchiveType) {
	p.archiveType = t
}

// SetDownloadFilenamePattern sets the regexp the asset filename must
// match.
func (p *Pipeline) SetDownloadFilenamePattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return wrapErr(Misconfigured, "invalid download filename pattern", err)
	}
	p.downloadFilenamePattern = re
	return nil
}

// SetDownloadURLPattern overrides the regexp the full asset URL must
// match, which is normally seeded by SetSource.
func (p *Pipeline) SetDownloadURLPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return wrapErr(Misconfigured, "invalid download url pattern", err)
	}
	p.downloadURLPattern = re
	return nil
}

// SetFilenameContainsVersion must be called explicitly before Update or
// GetLatest. When true, the downgrade-attack mitigation requires the
// asset filename to textually contain the resolved version.
func (p *Pipeline) SetFilenameContainsVersion(enabled bool) {
	p.filenameContainsVersionSet = true
	p.filenameContainsVersion = enabled
}

// AddVerification registers a Verifier with the Downloader.
func (p *Pipeline) AddVerification(v Verifier) {
	p.verifiers = append(p.verifiers, v)
}

// AddContentOperation registers an operation applied to the extracted
// scratch directory before it is committed into the working directory.
func (p *Pipeline) AddContentOperation(op ContentOperation) {
	p.contentOperations = append(p.contentOperations, op)
}

// AddPostUpdateOperation registers an operation applied to the committed
// update directory after it has been moved into place.
func (p *Pipeline) AddPostUpdateOperation(op ContentOperation) {
	p.postUpdateOperations = append(p.postUpdateOperations, op)
}

// OverrideFileURL registers a per-filename URL override, given the
// resolved version, for the eventual Downloader.
func (p *Pipeline) OverrideFileURL(filename string, resolve func(VersionNumber) string) {
	p.urlOverrides[filename] = resolve
}

// SetHTTPClient overrides the client used by the Downloader built for each
// Update call. Mainly useful for pointing at a test server with a
// self-signed certificate.
func (p *Pipeline) SetHTTPClient(client *http.Client) {
	p.client = client
}

// SetScratchRoot overrides the parent directory in which private,
// outside-the-working-directory scratch directories are created for each
// update attempt. Defaults to os.TempDir().
func (p *Pipeline) SetScratchRoot(dir string) {
	p.scratchRoot = dir
}

// Cancel delegates to the active Downloader's cancel flag, if an Update
// call is in progress. Safe to call from another goroutine.
func (p *Pipeline) Cancel() {
	if d := p.activeDownloader.Load(); d != nil {
		d.Cancel()
	}
}

// filenameContainsVersionPattern builds the regexp asserting that
// versionString appears in a filename without being part of a longer
// numeric run on either side.
func filenameContainsVersionPattern(versionString string) *regexp.Regexp {
	pattern := `(^|^[^0-9]|[^0-9]\.|[^.0-9])` + regexp.QuoteMeta(versionString) +
		`([^.0-9]|\.[^0-9]|[^0-9]$|$)`
	return regexp.MustCompile(pattern)
}

func (p *Pipeline) validate() error {
	if p.source == nil {
		return wrapErr(Misconfigured, "no source configured", nil)
	}
	if p.downloadFilenamePattern == nil {
		return wrapErr(Misconfigured, "no download filename pattern configured", nil)
	}
	if p.downloadURLPattern == nil {
		return wrapErr(Misconfigured, "no download url pattern configured", nil)
	}
	if !p.filenameContainsVersionSet {
		return wrapErr(Misconfigured, "filename_contains_version must be set explicitly", nil)
	}
	if p.archiveType == ArchiveUnknown {
		return wrapErr(Misconfigured, "no archive type configured", nil)
	}
	return nil
}

// resolve runs source discovery and validates the resulting asset URL
// against the configured patterns and, if enabled, the version-in-filename
// rule.
func (p *Pipeline) resolve(ctx context.Context) (VersionNumber, FileURL, error) {
	if err := p.validate(); err != nil {
		return VersionNumber{}, FileURL{}, err
	}
	version, url, err := p.source.Latest(ctx, p.downloadFilenamePattern)
	if err != nil {
		return VersionNumber{}, FileURL{}, err
	}
	if !p.downloadURLPattern.MatchString(url.URL()) {
		return VersionNumber{}, FileURL{}, wrapErr(TransportError, "download url does not match the configured pattern", nil)
	}
	if p.filenameContainsVersion {
		pattern := filenameContainsVersionPattern(version.String())
		if !pattern.MatchString(url.Filename()) {
			return VersionNumber{}, FileURL{}, wrapErr(VerificationFailed, "asset filename does not contain resolved version "+version.String(), nil)
		}
	}
	return version, url, nil
}

// GetLatest resolves the latest release and classifies it against the
// currently installed and currently running versions.
func (p *Pipeline) GetLatest(ctx context.Context) (UpdateInfo, error) {
	version, url, err := p.resolve(ctx)
	if err != nil {
		return UpdateInfo{}, err
	}
	if latest, _, ok := p.manager.LatestAvailableUpdate(); ok && latest.Equal(version) {
		return UpdateInfo{State: UpdateAlreadyInstalled, Version: version, URL: url}, nil
	}
	if version.Equal(p.manager.currentVersion) {
		return UpdateInfo{State: UpToDate, Version: version, URL: url}, nil
	}
	if version.Less(p.manager.currentVersion) {
		return UpdateInfo{State: LatestIsOlder, Version: version, URL: url}, nil
	}
	return UpdateInfo{State: NewVersionAvailable, Version: version, URL: url}, nil
}

// Update fetches, verifies, extracts, and commits the given release,
// returning the path to the newly committed version directory.
func (p *Pipeline) Update(ctx context.Context, version VersionNumber, url FileURL) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	if !p.downloadURLPattern.MatchString(url.URL()) {
		return "", wrapErr(TransportError, "download url does not match the configured pattern", nil)
	}
	if p.filenameContainsVersion {
		pattern := filenameContainsVersionPattern(version.String())
		if !pattern.MatchString(url.Filename()) {
			return "", wrapErr(VerificationFailed, "asset filename does not contain resolved version "+version.String(), nil)
		}
	}

	downloader := NewDownloader(p.client)
	if err := downloader.SetBaseURL(url.BaseURL()); err != nil {
		return "", err
	}
	downloader.SetFilename(url.Filename())
	for filename, resolve := range p.urlOverrides {
		downloader.OverrideFileURL(filename, resolve(version))
	}
	for _, v := range p.verifiers {
		downloader.AddVerification(v)
	}

	scratchDir := filepath.Join(p.scratchRoot, ".update-"+randomName())
	defer os.RemoveAll(scratchDir)

	p.activeDownloader.Store(downloader)
	asset, _, err := downloader.Get(ctx, scratchDir)
	p.activeDownloader.Store(nil)
	if err != nil {
		return "", err
	}

	extractedDir := filepath.Join(scratchDir, "extracted")
	if err := ExtractArchive(p.archiveType, asset.Path(), extractedDir); err != nil {
		return "", err
	}

	for _, op := range p.contentOperations {
		if err := op.Apply(extractedDir); err != nil {
			return "", wrapErr(ExtractionError, "content operation failed", err)
		}
	}

	finalDir := filepath.Join(p.manager.workingDir, version.String())
	os.RemoveAll(finalDir)
	if err := moveTree(extractedDir, finalDir); err != nil {
		return "", wrapErr(ExtractionError, "failed to commit update directory", err)
	}

	for _, op := range p.postUpdateOperations {
		if err := op.Apply(finalDir); err != nil {
			os.RemoveAll(finalDir)
			return "", wrapErr(ExtractionError, "post-update operation failed", err)
		}
	}

	if err := WriteSentinel(finalDir, version); err != nil {
		os.RemoveAll(finalDir)
		return "", wrapErr(ExtractionError, "failed to write sentinel", err)
	}
	return finalDir, nil
}
