package update

import (
	"context"
	"regexp"
)

// Source resolves the latest published release for a configured filename
// pattern into a version and the URL of the matching asset. Implementations
// fetch whatever index format their hosting provider exposes (a GitHub
// releases API response, a plain JSON manifest, ...) and extract a
// (VersionNumber, FileURL) pair from it.
type Source interface {
	// Latest resolves the newest release whose asset name matches pattern.
	Latest(ctx context.Context, pattern *regexp.Regexp) (VersionNumber, FileURL, error)
	// URLPattern returns a regexp that every asset URL this Source can
	// resolve must match, used by callers to sanity-check a URL obtained
	// from elsewhere (e.g. a previously persisted UpdateInfo) before
	// trusting it.
	URLPattern() *regexp.Regexp
}
