// Package galaxy queries the Galaxy REST API and downloads collection
// release tarballs.
//
// Collections are named "namespace.name"; the v2 API exposes them at
// api/v2/collections/namespace/name/.
package galaxy

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DefaultServer is the public Galaxy server (the config default).
const DefaultServer = "https://galaxy.ansible.com/"

// jsonGetter is the slice of httputil.Client the Galaxy client needs.
type jsonGetter interface {
	GetJSON(ctx context.Context, rawURL string, params url.Values, out any, acceptable ...int) (int, error)
}

// Client queries the Galaxy REST API.
type Client struct {
	http   jsonGetter
	server string
}

// NewClient creates a Galaxy client. An empty server falls back to
// DefaultServer.
func NewClient(httpClient jsonGetter, server string) *Client {
	if server == "" {
		server = DefaultServer
	}
	return &Client{http: httpClient, server: server}
}

// Artifact describes a release tarball.
type Artifact struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	SHA256   string `json:"sha256"`
}

// Release is the Galaxy record for one version of a collection.
type Release struct {
	Version     string   `json:"version"`
	DownloadURL string   `json:"download_url"`
	Artifact    Artifact `json:"artifact"`
}

// CollectionInfo is the Galaxy record for a collection.
type CollectionInfo struct {
	Name          string `json:"name"`
	Deprecated    bool   `json:"deprecated"`
	LatestVersion struct {
		Version string `json:"version"`
	} `json:"latest_version"`
}

type versionsPage struct {
	Results []struct {
		Version string `json:"version"`
	} `json:"results"`
	Next string `json:"next"`
}

// collectionPath converts "namespace.name" into the API path segments.
func collectionPath(collection string) string {
	return strings.ReplaceAll(collection, ".", "/")
}

func (c *Client) apiURL(segments ...string) (string, error) {
	return url.JoinPath(c.server, segments...)
}

// Versions returns every version of a collection known to Galaxy,
// following paged responses until exhausted.
func (c *Client) Versions(ctx context.Context, collection string) ([]string, error) {
	pageURL, err := c.apiURL("api", "v2", "collections", collectionPath(collection), "versions", "/")
	if err != nil {
		return nil, err
	}

	params := url.Values{"format": {"json"}, "page_size": {"100"}}
	var versions []string
	for pageURL != "" {
		var page versionsPage
		status, err := c.http.GetJSON(ctx, pageURL, params, &page, http.StatusNotFound)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, &NotFoundError{Collection: collection, URL: pageURL}
		}
		for _, rec := range page.Results {
			versions = append(versions, rec.Version)
		}
		pageURL = page.Next
		// Paging links already carry the query parameters.
		params = nil
	}
	return versions, nil
}

// Info returns the Galaxy record for a collection.
func (c *Client) Info(ctx context.Context, collection string) (*CollectionInfo, error) {
	infoURL, err := c.apiURL("api", "v2", "collections", collectionPath(collection), "/")
	if err != nil {
		return nil, err
	}

	var info CollectionInfo
	status, err := c.http.GetJSON(ctx, infoURL, url.Values{"format": {"json"}}, &info, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, &NotFoundError{Collection: collection, URL: infoURL}
	}
	return &info, nil
}

// ReleaseInfo returns the record for one specific version of a
// collection.
func (c *Client) ReleaseInfo(ctx context.Context, collection, version string) (*Release, error) {
	relURL, err := c.apiURL("api", "v2", "collections", collectionPath(collection), "versions", version, "/")
	if err != nil {
		return nil, err
	}

	var rel Release
	status, err := c.http.GetJSON(ctx, relURL, url.Values{"format": {"json"}}, &rel, http.StatusNotFound)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, &NotFoundError{Collection: collection, URL: relURL}
	}
	return &rel, nil
}

// LatestMatchingVersion returns the newest version of a collection that
// satisfies the constraint. Stable releases are always preferred; when
// allowPrereleases is set, prereleases are used only as a fallback when
// no stable release matches. Prereleases are matched on their release
// triple (2.0.0-b1 is a candidate wherever 2.0.0 would be).
func (c *Client) LatestMatchingVersion(ctx context.Context, collection, constraint string, allowPrereleases bool) (*semver.Version, error) {
	raw, err := c.Versions(ctx, collection)
	if err != nil {
		return nil, err
	}

	spec, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, &NoSuchVersionError{Collection: collection, Constraint: constraint}
	}

	versions := make([]*semver.Version, 0, len(raw))
	for _, r := range raw {
		v, err := semver.NewVersion(r)
		if err != nil {
			// Galaxy occasionally serves junk versions; skip them.
			continue
		}
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(semver.Collection(versions)))

	var prereleases []*semver.Version
	for _, v := range versions {
		if v.Prerelease() != "" {
			if stripped, err := v.SetPrerelease(""); err == nil && spec.Check(&stripped) {
				prereleases = append(prereleases, v)
			}
			continue
		}
		if spec.Check(v) {
			return v, nil
		}
	}

	if allowPrereleases && len(prereleases) > 0 {
		return prereleases[0], nil
	}
	return nil, &NoSuchVersionError{Collection: collection, Constraint: constraint}
}
