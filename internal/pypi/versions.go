package pypi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// PyPI release strings follow PEP 440, not semver: prerelease segments
// are glued on without a dash (2.14.0rc1) and dev builds use a dotted
// suffix (2.13.0.dev3).
var pypiVersionRe = regexp.MustCompile(
	`^(\d+)\.(\d+)(?:\.(\d+))?(?:(a|b|rc)(\d+))?(?:\.(dev|post)(\d+))?$`)

// ParseVersion parses a PyPI-style ansible-core version string into a
// semver version. Plain semver strings parse unchanged.
func ParseVersion(raw string) (*semver.Version, error) {
	if v, err := semver.NewVersion(raw); err == nil {
		return v, nil
	}

	m := pypiVersionRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("pypi: cannot parse version %q", raw)
	}

	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	var pre []string
	if m[4] != "" {
		pre = append(pre, m[4]+m[5])
	}
	if m[6] != "" {
		pre = append(pre, m[6]+m[7])
	}

	normalized := fmt.Sprintf("%s.%s.%s", m[1], m[2], patch)
	if len(pre) > 0 {
		normalized += "-" + strings.Join(pre, ".")
	}
	return semver.NewVersion(normalized)
}
