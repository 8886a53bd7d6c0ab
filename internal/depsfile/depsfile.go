// Package depsfile reads and writes the dependency files a release is
// described by: .deps files pinning exact versions and .build files
// carrying version constraints.
package depsfile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/asteroid-belt/relcore/internal/fileutil"
)

// Control lines start with an underscore so they cannot collide with
// collection names.
const (
	keyAnsibleVersion     = "_ansible_version"
	keyAnsibleCoreVersion = "_ansible_core_version"
	keyAnsibleBaseVersion = "_ansible_base_version"
	keyPython             = "_python"
)

// InvalidFormatError reports a malformed dependency file line.
type InvalidFormatError struct {
	Path string
	Line int
	Text string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("%s:%d: invalid dependency line %q", e.Path, e.Line, e.Text)
}

// Deps is the parsed content of a .deps file: the exact versions one
// ansible release was built from.
type Deps struct {
	Ansible     string
	AnsibleCore string
	Python      string
	Collections map[string]string
}

// Build is the parsed content of a .build file: the constraints the
// next releases of a major version are resolved against.
type Build struct {
	AnsibleVersion     string
	AnsibleCoreVersion string
	Python             string
	Constraints        map[string]string
}

// parseLines splits a dependency file into key/value pairs, reporting
// per-line errors.
func parseLines(path string, data []byte) (map[string]string, error) {
	pairs := make(map[string]string)
	for i, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, found := strings.Cut(trimmed, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !found || key == "" || value == "" {
			return nil, &InvalidFormatError{Path: path, Line: i + 1, Text: trimmed}
		}
		if _, dup := pairs[key]; dup {
			return nil, &InvalidFormatError{Path: path, Line: i + 1, Text: trimmed}
		}
		pairs[key] = value
	}
	return pairs, nil
}

// ParseDeps reads a .deps file.
func ParseDeps(path string) (*Deps, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deps file: %w", err)
	}
	pairs, err := parseLines(path, data)
	if err != nil {
		return nil, err
	}

	deps := &Deps{Collections: make(map[string]string)}
	for key, value := range pairs {
		switch key {
		case keyAnsibleVersion:
			deps.Ansible = value
		case keyAnsibleCoreVersion, keyAnsibleBaseVersion:
			deps.AnsibleCore = value
		case keyPython:
			deps.Python = value
		default:
			deps.Collections[key] = value
		}
	}
	return deps, nil
}

// WriteDeps writes a .deps file with sorted collection lines,
// replacing the destination atomically.
func WriteDeps(path string, deps *Deps) error {
	var b strings.Builder
	writeControl(&b, keyAnsibleVersion, deps.Ansible)
	writeControl(&b, keyAnsibleCoreVersion, deps.AnsibleCore)
	writeControl(&b, keyPython, deps.Python)
	writeSorted(&b, deps.Collections)
	return fileutil.WriteAtomic(path, []byte(b.String()), 0644)
}

// ParseBuild reads a .build file.
func ParseBuild(path string) (*Build, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read build file: %w", err)
	}
	pairs, err := parseLines(path, data)
	if err != nil {
		return nil, err
	}

	build := &Build{Constraints: make(map[string]string)}
	for key, value := range pairs {
		switch key {
		case keyAnsibleVersion:
			build.AnsibleVersion = value
		case keyAnsibleCoreVersion, keyAnsibleBaseVersion:
			build.AnsibleCoreVersion = value
		case keyPython:
			build.Python = value
		default:
			build.Constraints[key] = value
		}
	}
	return build, nil
}

// WriteBuild writes a .build file with sorted constraint lines,
// replacing the destination atomically.
func WriteBuild(path string, build *Build) error {
	var b strings.Builder
	writeControl(&b, keyAnsibleVersion, build.AnsibleVersion)
	writeControl(&b, keyAnsibleCoreVersion, build.AnsibleCoreVersion)
	writeControl(&b, keyPython, build.Python)
	writeSorted(&b, build.Constraints)
	return fileutil.WriteAtomic(path, []byte(b.String()), 0644)
}

func writeControl(b *strings.Builder, key, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", key, value)
	}
}

func writeSorted(b *strings.Builder, entries map[string]string) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(b, "%s: %s\n", name, entries[name])
	}
}
