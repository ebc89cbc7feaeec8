/*
Package update implements the core of a self-update engine for desktop
applications that ship as signed archive releases.

Given a notion of "current version", the engine discovers whether a newer
release exists on a remote origin, downloads it together with integrity and
authenticity metadata, verifies both, extracts the contents to a managed
working directory, and coordinates with an external launcher process so that
a running application can be replaced atomically on next start.

The package is organized around four cooperating pieces:

  - Downloader, a content-addressed, cancellable, single-attempt fetcher
    that authenticates every artifact against a detached signature and a
    signed manifest before handing it to callers.
  - Manager, which owns the working directory's layout, lock file, and the
    apply/launch handoff between a main process and a launcher process.
  - Source, which resolves a remote release index to a version and a
    download URL; GitHubSource is the reference implementation.
  - Pipeline, which composes the above into an atomic, cancellable Update
    operation: resolve, validate, download, verify, extract, commit.

Update operations are synchronous and not safe to share across goroutines;
only Downloader.Cancel, Downloader.Cancelled and Manager.HasLock may be
called concurrently with an update in progress.
*/
package update
