package galaxy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/asteroid-belt/relcore/internal/fileutil"
	"github.com/asteroid-belt/relcore/internal/hash"
)

// streamGetter extends jsonGetter with body streaming for tarballs.
type streamGetter interface {
	jsonGetter
	Download(ctx context.Context, rawURL string, w io.Writer, chunksize int) (int64, error)
}

// DownloaderOptions configures a Downloader.
type DownloaderOptions struct {
	// DownloadDir receives the downloaded tarballs.
	DownloadDir string

	// CacheDir, when set, is a directory of previously downloaded
	// tarballs. A cached file is reused only when its checksum matches
	// the release record; fresh downloads are copied back into it.
	CacheDir string

	// Chunksize is the read size for streaming downloads.
	Chunksize int

	// ContentCheckLimit is the byte budget for skip-if-identical checks
	// on cache copies; files within the budget are not rewritten when
	// their content already matches. 0 disables the check.
	ContentCheckLimit int
}

// Downloader downloads collection release tarballs from Galaxy.
type Downloader struct {
	*Client
	stream streamGetter
	opts   DownloaderOptions
}

// DownloadResult names the exact version that was downloaded and where
// it landed.
type DownloadResult struct {
	Version *semver.Version
	Path    string
}

// NewDownloader creates a Downloader on top of an existing client. The
// stream client is normally the same *httputil.Client the Galaxy
// client queries with.
func NewDownloader(client *Client, stream streamGetter, opts DownloaderOptions) *Downloader {
	return &Downloader{Client: client, stream: stream, opts: opts}
}

// Download fetches one release tarball into DownloadDir, verifying its
// sha256 against the release record. The collection cache, when
// configured, is consulted first and populated afterwards. Returns the
// path of the tarball in DownloadDir.
func (d *Downloader) Download(ctx context.Context, collection, version string) (string, error) {
	release, err := d.ReleaseInfo(ctx, collection, version)
	if err != nil {
		return "", err
	}
	if release.Artifact.Filename == "" {
		return "", &DownloadError{URL: release.DownloadURL, Reason: "release record has no artifact filename"}
	}

	dest := filepath.Join(d.opts.DownloadDir, release.Artifact.Filename)

	if d.opts.CacheDir != "" {
		cached := filepath.Join(d.opts.CacheDir, release.Artifact.Filename)
		if _, err := os.Stat(cached); err == nil {
			ok, err := hash.Verify(cached, release.Artifact.SHA256)
			if err != nil {
				return "", err
			}
			if ok {
				if err := fileutil.CopyFile(cached, dest, d.copyOptions()); err != nil {
					return "", fmt.Errorf("galaxy: copy cached %s: %w", release.Artifact.Filename, err)
				}
				return dest, nil
			}
			// Stale or corrupt cache entry: fall through and redownload.
		}
	}

	if err := d.fetch(ctx, release.DownloadURL, dest); err != nil {
		return "", err
	}

	ok, err := hash.Verify(dest, release.Artifact.SHA256)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &DownloadError{
			URL:    release.DownloadURL,
			Reason: fmt.Sprintf("checksum mismatch, expected sha256 %s", release.Artifact.SHA256),
		}
	}

	if d.opts.CacheDir != "" {
		cached := filepath.Join(d.opts.CacheDir, release.Artifact.Filename)
		if err := fileutil.CopyFile(dest, cached, d.copyOptions()); err != nil {
			return "", fmt.Errorf("galaxy: cache %s: %w", release.Artifact.Filename, err)
		}
	}

	return dest, nil
}

func (d *Downloader) copyOptions() fileutil.CopyOptions {
	return fileutil.CopyOptions{ContentCheckLimit: d.opts.ContentCheckLimit}
}

// DownloadLatestMatching resolves the newest version satisfying the
// constraint and downloads it.
func (d *Downloader) DownloadLatestMatching(ctx context.Context, collection, constraint string, allowPrereleases bool) (DownloadResult, error) {
	version, err := d.LatestMatchingVersion(ctx, collection, constraint, allowPrereleases)
	if err != nil {
		return DownloadResult{}, err
	}
	path, err := d.Download(ctx, collection, version.Original())
	if err != nil {
		return DownloadResult{}, err
	}
	return DownloadResult{Version: version, Path: path}, nil
}

// fetch streams a release URL into dest via a temp file so a partial
// download never shadows a good tarball.
func (d *Downloader) fetch(ctx context.Context, rawURL, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("galaxy: create download dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".download-*")
	if err != nil {
		return fmt.Errorf("galaxy: create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := d.stream.Download(ctx, rawURL, tmp, d.opts.Chunksize); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("galaxy: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("galaxy: move download into place: %w", err)
	}
	return nil
}
