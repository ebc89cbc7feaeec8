package update

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// GitHubSource resolves the latest release of a GitHub repository via the
// public "releases/latest" REST endpoint.
type GitHubSource struct {
	Owner      string
	Repository string
	scratchDir string
	apiURL     string       // overridable for tests
	client     *http.Client // overridable for tests
}

// NewGitHubSource constructs a Source backed by a GitHub repository's
// releases API.
func NewGitHubSource(owner, repository string) *GitHubSource {
	return &GitHubSource{Owner: owner, Repository: repository}
}

// SetScratchDir sets the directory under which the fetched release index
// JSON is staged. It is created if missing.
func (s *GitHubSource) SetScratchDir(dir string) {
	s.scratchDir = dir
}

// SetHTTPClient overrides the client used to reach the GitHub API. Mainly
// useful for pointing at a test server with a self-signed certificate.
func (s *GitHubSource) SetHTTPClient(client *http.Client) {
	s.client = client
}

// overrideAPIURL replaces the releases/latest endpoint, for tests.
func (s *GitHubSource) overrideAPIURL(url string) {
	s.apiURL = url
}

func (s *GitHubSource) apiEndpoint() string {
	if s.apiURL != "" {
		return s.apiURL
	}
	return "https://api.github.com/repos/" + s.Owner + "/" + s.Repository + "/releases/latest"
}

func (s *GitHubSource) URLPattern() *regexp.Regexp {
	return regexp.MustCompile("^https://github\\.com/" + regexp.QuoteMeta(s.Owner) + "/" +
		regexp.QuoteMeta(s.Repository) + "/releases/download/.*")
}

type githubReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type githubRelease struct {
	TagName string               `json:"tag_name"`
	Assets  []githubReleaseAsset `json:"assets"`
}

// Latest fetches the repository's latest release and returns the version
// parsed from its tag name (which must start with "v"; the "v" is stripped)
// alongside the URL of the first asset whose name matches pattern. Each
// call stages the index in a fresh subdirectory of the scratch directory
// and removes it afterwards.
func (s *GitHubSource) Latest(ctx context.Context, pattern *regexp.Regexp) (VersionNumber, FileURL, error) {
	d := NewDownloader(s.client)
	if err := d.SetBaseURL("https://api.github.com"); err != nil {
		return VersionNumber{}, FileURL{}, err
	}
	d.OverrideFileURL("release.json", s.apiEndpoint())
	d.SetFilename("release.json")

	scratch := s.scratchDir
	if scratch == "" {
		scratch = "."
	}
	scratch = filepath.Join(scratch, ".release-"+randomName())
	defer os.RemoveAll(scratch)
	file, _, err := d.Get(ctx, scratch)
	if err != nil {
		return VersionNumber{}, FileURL{}, err
	}
	data, err := file.Read()
	if err != nil {
		return VersionNumber{}, FileURL{}, wrapErr(TransportError, "failed to read release index", err)
	}

	var release githubRelease
	if err := json.Unmarshal(data, &release); err != nil {
		return VersionNumber{}, FileURL{}, wrapErr(TransportError, "failed to parse release index", err)
	}
	version, err := ParseVersionNumber(release.TagName, "v")
	if err != nil {
		return VersionNumber{}, FileURL{}, wrapErr(TransportError, "failed to parse release tag "+release.TagName, err)
	}

	var assetURL string
	for _, asset := range release.Assets {
		if pattern.MatchString(asset.Name) {
			assetURL = asset.BrowserDownloadURL
			break
		}
	}
	if assetURL == "" {
		return VersionNumber{}, FileURL{}, wrapErr(TransportError, "no matching asset in latest release", nil)
	}
	if !strings.HasPrefix(assetURL, "https://github.com") {
		return VersionNumber{}, FileURL{}, wrapErr(TransportError, "release asset url is not a github url: "+assetURL, nil)
	}
	return version, NewFileURL(assetURL), nil
}
