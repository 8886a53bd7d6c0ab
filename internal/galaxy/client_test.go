package galaxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/relcore/internal/httputil"
)

func testHTTPClient() *httputil.Client {
	return httputil.NewClient(httputil.Options{
		MaxRetries:      1,
		RetryBackoff:    time.Millisecond,
		RetryMaxBackoff: 5 * time.Millisecond,
	})
}

// galaxyFixture serves a minimal v2 API for one collection.
type galaxyFixture struct {
	versions [][]string // one slice per page
}

func (f *galaxyFixture) handler(t *testing.T, baseURL func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/collections/community/general/versions/":
			page := 0
			if p := r.URL.Query().Get("page"); p != "" {
				_, _ = fmt.Sscanf(p, "%d", &page)
			}
			if page >= len(f.versions) {
				http.NotFound(w, r)
				return
			}
			next := ""
			if page+1 < len(f.versions) {
				next = fmt.Sprintf("%s/api/v2/collections/community/general/versions/?page=%d", baseURL(), page+1)
			}
			results := make([]map[string]string, 0, len(f.versions[page]))
			for _, v := range f.versions[page] {
				results = append(results, map[string]string{"version": v})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": results,
				"next":    next,
			})
		case "/api/v2/collections/community/general/":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name":           "general",
				"deprecated":     false,
				"latest_version": map[string]string{"version": "6.0.0"},
			})
		default:
			http.NotFound(w, r)
		}
	}
}

func newFixtureServer(t *testing.T, f *galaxyFixture) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(f.handler(t, func() string { return srv.URL }))
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionsFollowsPagination(t *testing.T) {
	srv := newFixtureServer(t, &galaxyFixture{
		versions: [][]string{{"6.0.0", "5.9.1"}, {"5.9.0"}, {"0.1.1"}},
	})

	client := NewClient(testHTTPClient(), srv.URL)
	versions, err := client.Versions(context.Background(), "community.general")
	require.NoError(t, err)

	assert.Equal(t, []string{"6.0.0", "5.9.1", "5.9.0", "0.1.1"}, versions)
}

func TestVersionsUnknownCollection(t *testing.T) {
	srv := newFixtureServer(t, &galaxyFixture{versions: [][]string{{"1.0.0"}}})

	client := NewClient(testHTTPClient(), srv.URL)
	_, err := client.Versions(context.Background(), "community.missing")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "community.missing", notFound.Collection)
}

func TestInfo(t *testing.T) {
	srv := newFixtureServer(t, &galaxyFixture{versions: [][]string{{"6.0.0"}}})

	client := NewClient(testHTTPClient(), srv.URL)
	info, err := client.Info(context.Background(), "community.general")
	require.NoError(t, err)

	assert.Equal(t, "general", info.Name)
	assert.Equal(t, "6.0.0", info.LatestVersion.Version)
}

func TestReleaseInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/collections/community/general/versions/6.0.0/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"version":      "6.0.0",
			"download_url": "https://example.com/community-general-6.0.0.tar.gz",
			"artifact": map[string]any{
				"filename": "community-general-6.0.0.tar.gz",
				"size":     12345,
				"sha256":   "abc123",
			},
		})
	}))
	defer srv.Close()

	client := NewClient(testHTTPClient(), srv.URL)
	rel, err := client.ReleaseInfo(context.Background(), "community.general", "6.0.0")
	require.NoError(t, err)

	assert.Equal(t, "community-general-6.0.0.tar.gz", rel.Artifact.Filename)
	assert.Equal(t, "abc123", rel.Artifact.SHA256)
}

func TestLatestMatchingVersionPrefersStable(t *testing.T) {
	srv := newFixtureServer(t, &galaxyFixture{
		versions: [][]string{{"2.1.0-b2", "2.0.0", "1.9.0", "1.0.0"}},
	})
	client := NewClient(testHTTPClient(), srv.URL)

	v, err := client.LatestMatchingVersion(context.Background(), "community.general", ">=1.0.0, <3.0.0", true)
	require.NoError(t, err)

	// 2.1.0-b2 is newer but stable releases win.
	assert.Equal(t, "2.0.0", v.String())
}

func TestLatestMatchingVersionPrereleaseFallback(t *testing.T) {
	srv := newFixtureServer(t, &galaxyFixture{
		versions: [][]string{{"2.0.0-a2", "2.0.0-a1", "1.0.0"}},
	})
	client := NewClient(testHTTPClient(), srv.URL)

	v, err := client.LatestMatchingVersion(context.Background(), "community.general", ">=2.0.0-0, <3.0.0", true)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0-a2", v.String())

	// Without the prerelease escape hatch there is no match.
	_, err = client.LatestMatchingVersion(context.Background(), "community.general", ">=2.0.0-0, <3.0.0", false)
	var noVersion *NoSuchVersionError
	require.ErrorAs(t, err, &noVersion)
}

func TestLatestMatchingVersionNoMatch(t *testing.T) {
	srv := newFixtureServer(t, &galaxyFixture{
		versions: [][]string{{"1.0.0", "1.1.0"}},
	})
	client := NewClient(testHTTPClient(), srv.URL)

	_, err := client.LatestMatchingVersion(context.Background(), "community.general", ">=2.0.0", false)

	var noVersion *NoSuchVersionError
	require.ErrorAs(t, err, &noVersion)
	assert.Equal(t, ">=2.0.0", noVersion.Constraint)
}

func TestLatestMatchingVersionBadConstraint(t *testing.T) {
	srv := newFixtureServer(t, &galaxyFixture{versions: [][]string{{"1.0.0"}}})
	client := NewClient(testHTTPClient(), srv.URL)

	_, err := client.LatestMatchingVersion(context.Background(), "community.general", "not-a-spec", false)
	assert.Error(t, err)
}
