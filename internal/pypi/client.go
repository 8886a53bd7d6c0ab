// Package pypi retrieves ansible-core release artifacts, either from
// PyPI or built from a local source tree.
package pypi

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/asteroid-belt/relcore/internal/hash"
	"github.com/asteroid-belt/relcore/internal/httputil"
)

// DefaultServer is the production PyPI endpoint.
const DefaultServer = "https://pypi.org/"

// The package was renamed for the 2.11 release; older versions live
// under the ansible-base project.
const (
	corePackage = "ansible-core"
	basePackage = "ansible-base"
)

// CorePackageName returns the PyPI project that publishes the given
// ansible-core version.
func CorePackageName(version *semver.Version) string {
	if version.Major() < 2 || (version.Major() == 2 && version.Minor() < 11) {
		return basePackage
	}
	return corePackage
}

// ReleaseFile describes one downloadable file of a release.
type ReleaseFile struct {
	Filename    string            `json:"filename"`
	URL         string            `json:"url"`
	PackageType string            `json:"packagetype"`
	Digests     map[string]string `json:"digests"`
}

type projectInfo struct {
	Releases map[string][]ReleaseFile `json:"releases"`
}

// Client talks to PyPI's JSON API.
type Client struct {
	http      *httputil.Client
	server    string
	chunksize int
}

// NewClient returns a Client against the given PyPI server.
func NewClient(httpClient *httputil.Client, server string, chunksize int) *Client {
	if server == "" {
		server = DefaultServer
	}
	if chunksize <= 0 {
		chunksize = 4096
	}
	return &Client{http: httpClient, server: server, chunksize: chunksize}
}

// ReleaseInfo fetches the combined release map of ansible-core and
// ansible-base. Both projects are queried concurrently; where a version
// appears in both, the ansible-core entry wins.
func (c *Client) ReleaseInfo(ctx context.Context) (map[string][]ReleaseFile, error) {
	var core, base projectInfo

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.project(ctx, corePackage, &core)
	})
	g.Go(func() error {
		return c.project(ctx, basePackage, &base)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := make(map[string][]ReleaseFile, len(core.Releases)+len(base.Releases))
	for version, files := range base.Releases {
		combined[version] = files
	}
	for version, files := range core.Releases {
		combined[version] = files
	}
	return combined, nil
}

func (c *Client) project(ctx context.Context, name string, out *projectInfo) error {
	endpoint, err := url.JoinPath(c.server, "pypi", name, "json")
	if err != nil {
		return fmt.Errorf("build pypi url: %w", err)
	}
	if _, err := c.http.GetJSON(ctx, endpoint, nil, out); err != nil {
		return fmt.Errorf("fetch release info for %s: %w", name, err)
	}
	return nil
}

// Versions returns all published versions, newest first. Release
// strings PyPI publishes in its own style (2.14.0rc1, 2.13.0.dev3) are
// normalized before comparison; versions that still do not parse are
// skipped.
func (c *Client) Versions(ctx context.Context) ([]*semver.Version, error) {
	releases, err := c.ReleaseInfo(ctx)
	if err != nil {
		return nil, err
	}

	versions := make([]*semver.Version, 0, len(releases))
	for raw := range releases {
		v, err := ParseVersion(raw)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(semver.Collection(versions)))
	return versions, nil
}

// LatestVersion returns the newest stable version.
func (c *Client) LatestVersion(ctx context.Context) (*semver.Version, error) {
	versions, err := c.Versions(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.Prerelease() == "" {
			return v, nil
		}
	}
	return nil, fmt.Errorf("pypi: no stable ansible-core release found")
}

// Retrieve downloads the sdist for the given version into downloadDir
// and returns its path. The sha256 digest PyPI publishes is verified.
func (c *Client) Retrieve(ctx context.Context, version *semver.Version, downloadDir string) (string, error) {
	releases, err := c.ReleaseInfo(ctx)
	if err != nil {
		return "", err
	}

	files, ok := releases[PyPIVersionString(version)]
	if !ok {
		return "", fmt.Errorf("pypi: no release found for version %s", version)
	}
	for _, file := range files {
		if file.PackageType != "sdist" {
			continue
		}
		dest := filepath.Join(downloadDir, file.Filename)
		if err := c.fetch(ctx, file, dest); err != nil {
			return "", err
		}
		return dest, nil
	}
	return "", fmt.Errorf("pypi: no sdist found for version %s", version)
}

func (c *Client) fetch(ctx context.Context, file ReleaseFile, dest string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := c.http.Download(ctx, file.URL, tmp, c.chunksize); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("download %s: %w", file.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if expected := file.Digests["sha256"]; expected != "" {
		ok, err := hash.Verify(tmp.Name(), expected)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("pypi: checksum mismatch for %s", file.Filename)
		}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("rename to %s: %w", dest, err)
	}
	return nil
}

// PyPIVersionString renders a parsed version back in the style PyPI
// uses as release keys (2.14.0-rc1 becomes 2.14.0rc1).
func PyPIVersionString(v *semver.Version) string {
	base := fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
	pre := v.Prerelease()
	if pre == "" {
		return base
	}
	if strings.HasPrefix(pre, "dev") {
		return base + "." + pre
	}
	return base + pre
}
