package pypi

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var releaseVersionRe = regexp.MustCompile(`__version__\s*=\s*['"]([^'"]+)['"]`)

// SourceVersion reads the version an ansible-core source tree declares
// in lib/ansible/release.py.
func SourceVersion(sourceDir string) (*semver.Version, error) {
	releasePy := filepath.Join(sourceDir, "lib", "ansible", "release.py")
	data, err := os.ReadFile(releasePy)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", releasePy, err)
	}

	m := releaseVersionRe.FindSubmatch(data)
	if m == nil {
		return nil, fmt.Errorf("pypi: no __version__ in %s", releasePy)
	}
	v, err := ParseVersion(string(m[1]))
	if err != nil {
		return nil, fmt.Errorf("pypi: bad __version__ in %s: %w", releasePy, err)
	}
	return v, nil
}

// SourceIsDevel reports whether the source tree is a devel checkout,
// recognizable by its .dev version suffix.
func SourceIsDevel(sourceDir string) bool {
	v, err := SourceVersion(sourceDir)
	if err != nil {
		return false
	}
	return strings.Contains(v.Prerelease(), "dev")
}

// SourceIsCorrectVersion reports whether the source tree can produce
// the requested release: same major.minor, and the tree at least as new
// as the request.
func SourceIsCorrectVersion(sourceDir string, version *semver.Version) bool {
	sourceVersion, err := SourceVersion(sourceDir)
	if err != nil {
		return false
	}
	if sourceVersion.Major() != version.Major() || sourceVersion.Minor() != version.Minor() {
		return false
	}
	return !sourceVersion.LessThan(version)
}
