package pypi

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version selectors understood by GetCore in addition to explicit
// version strings.
const (
	DevelVersion  = "@devel"
	LatestVersion = "@latest"
)

// CoreOptions configures GetCore.
type CoreOptions struct {
	// DownloadDir receives the resulting sdist (and, for @devel, the
	// git checkout).
	DownloadDir string
	// SourceDir optionally points at a local ansible-core tree. When it
	// declares a matching version the sdist is built from it instead of
	// downloaded.
	SourceDir string
	// RepoURL is the git repository @devel is built from.
	RepoURL string
}

// CoreResult is the outcome of GetCore.
type CoreResult struct {
	// Version is nil for @devel builds, whose version is whatever the
	// checkout declares.
	Version *semver.Version
	Path    string
}

// GetCore produces an ansible-core sdist for the requested version.
// version is @devel, @latest, or an explicit version string.
func (c *Client) GetCore(ctx context.Context, version string, opts CoreOptions) (*CoreResult, error) {
	if version == DevelVersion {
		return c.develCore(ctx, opts)
	}

	var (
		resolved *semver.Version
		err      error
	)
	if version == LatestVersion {
		resolved, err = c.LatestVersion(ctx)
	} else {
		resolved, err = ParseVersion(version)
	}
	if err != nil {
		return nil, err
	}

	if opts.SourceDir != "" && SourceIsCorrectVersion(opts.SourceDir, resolved) {
		path, err := BuildSdist(ctx, opts.SourceDir, opts.DownloadDir)
		if err != nil {
			return nil, err
		}
		return &CoreResult{Version: resolved, Path: path}, nil
	}

	path, err := c.Retrieve(ctx, resolved, opts.DownloadDir)
	if err != nil {
		return nil, err
	}
	return &CoreResult{Version: resolved, Path: path}, nil
}

func (c *Client) develCore(ctx context.Context, opts CoreOptions) (*CoreResult, error) {
	sourceDir := opts.SourceDir
	if sourceDir != "" && !SourceIsDevel(sourceDir) {
		return nil, fmt.Errorf("pypi: %s is not a devel checkout", sourceDir)
	}
	if sourceDir == "" {
		var err error
		sourceDir, err = CheckoutFromGit(ctx, opts.DownloadDir, opts.RepoURL)
		if err != nil {
			return nil, err
		}
	}

	path, err := BuildSdist(ctx, sourceDir, opts.DownloadDir)
	if err != nil {
		return nil, err
	}
	return &CoreResult{Path: path}, nil
}
