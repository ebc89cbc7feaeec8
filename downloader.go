package update

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// Downloader fetches a primary file and any auxiliary files its registered
// Verifiers require, then runs those verifiers in registration order before
// handing the caller back a verified DownloadedFile. A Downloader is meant
// to be used once per update attempt: call Get, inspect the error, discard
// it.
type Downloader struct {
	client     *http.Client
	baseURL    string
	filename   string
	verifiers  []Verifier
	auxFiles   map[string]bool
	overrides  map[string]string
	scratchDir string
	cancelled  atomic.Bool
}

// NewDownloader constructs a Downloader. client may be nil, in which case
// http.DefaultClient is used.
func NewDownloader(client *http.Client) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client:    client,
		auxFiles:  map[string]bool{},
		overrides: map[string]string{},
	}
}

// SetBaseURL sets the URL directory that files are fetched relative to. It
// must be an HTTPS URL, matching the production requirement that update
// artifacts never travel over plaintext.
func (d *Downloader) SetBaseURL(url string) error {
	if !strings.HasPrefix(url, "https://") {
		return wrapErr(Misconfigured, "downloader base url must use https: "+url, nil)
	}
	d.baseURL = strings.TrimRight(url, "/")
	return nil
}

// SetFilename sets the primary file's name, relative to the base URL.
func (d *Downloader) SetFilename(filename string) {
	d.filename = filename
}

// AddVerification registers a Verifier. Its Files() are fetched as
// auxiliary files before the primary file is verified.
func (d *Downloader) AddVerification(v Verifier) {
	d.verifiers = append(d.verifiers, v)
	for _, name := range v.Files() {
		d.auxFiles[name] = true
	}
}

// OverrideFileURL overrides the URL a specific filename is fetched from,
// instead of resolving it relative to the base URL. Used when a file (e.g.
// a signature) is hosted alongside a release asset under a different path
// than the base URL implies.
func (d *Downloader) OverrideFileURL(filename, url string) {
	d.overrides[filename] = url
}

// Cancel requests that any in-progress or future Get call abort at its next
// cancellation checkpoint. Safe to call from another goroutine.
func (d *Downloader) Cancel() {
	d.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called on this Downloader.
func (d *Downloader) Cancelled() bool {
	return d.cancelled.Load()
}

// Get fetches the primary file and all auxiliary files required by
// registered verifiers, then runs the verifiers in registration order.
// Auxiliary files are fetched before the primary file so that a cancel
// between fetches never leaves a verified-but-unverifiable primary file on
// disk. It returns the verified primary file plus the complete set of
// files fetched, keyed by filename.
func (d *Downloader) Get(ctx context.Context, scratchDir string) (DownloadedFile, map[string]DownloadedFile, error) {
	if d.filename == "" {
		return DownloadedFile{}, nil, wrapErr(Misconfigured, "downloader filename not set", nil)
	}
	d.scratchDir = scratchDir
	if err := os.MkdirAll(d.scratchDir, 0o755); err != nil {
		return DownloadedFile{}, nil, wrapErr(TransportError, "failed to create scratch directory", err)
	}

	downloaded := map[string]DownloadedFile{}
	for name := range d.auxFiles {
		if d.checkCancelled() {
			return DownloadedFile{}, nil, wrapErr(Cancelled, "download cancelled", nil)
		}
		file, err := d.getFile(ctx, name)
		if err != nil {
			return DownloadedFile{}, nil, err
		}
		downloaded[name] = file
	}

	if d.checkCancelled() {
		return DownloadedFile{}, nil, wrapErr(Cancelled, "download cancelled", nil)
	}
	primary, err := d.getFile(ctx, d.filename)
	if err != nil {
		return DownloadedFile{}, nil, err
	}
	downloaded[d.filename] = primary

	for _, v := range d.verifiers {
		if d.checkCancelled() {
			return DownloadedFile{}, nil, wrapErr(Cancelled, "download cancelled", nil)
		}
		if err := v.Verify(VerificationPayload{File: d.filename, DownloadedFiles: downloaded}); err != nil {
			return DownloadedFile{}, nil, err
		}
	}
	return primary, downloaded, nil
}

func (d *Downloader) checkCancelled() bool {
	return d.cancelled.Load()
}

// getFile fetches filename to the scratch directory, skipping the network
// round trip if a regular file of that name is already present there
// (whichever Downloader put it there).
func (d *Downloader) getFile(ctx context.Context, filename string) (DownloadedFile, error) {
	dest := filepath.Join(d.scratchDir, filepath.Base(filename))
	if info, err := os.Stat(dest); err == nil && info.Mode().IsRegular() {
		return NewDownloadedFile(dest), nil
	}

	url, ok := d.overrides[filename]
	if !ok {
		if d.baseURL == "" {
			return DownloadedFile{}, wrapErr(Misconfigured, "downloader base url not set", nil)
		}
		url = d.baseURL + "/" + stripLeadingSlash(filename)
	}

	Logger().Infof("downloading %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DownloadedFile{}, wrapErr(TransportError, "failed to build request for "+url, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return DownloadedFile{}, wrapErr(TransportError, "failed to fetch "+url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return DownloadedFile{}, wrapErr(TransportError, "unexpected status fetching "+url+": "+resp.Status, nil)
	}

	out, err := os.Create(dest)
	if err != nil {
		return DownloadedFile{}, wrapErr(TransportError, "failed to create "+dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return DownloadedFile{}, wrapErr(TransportError, "failed to write "+dest, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return DownloadedFile{}, wrapErr(TransportError, "failed to finalize "+dest, err)
	}
	return NewDownloadedFile(dest), nil
}
