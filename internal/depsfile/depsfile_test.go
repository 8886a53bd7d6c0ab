package depsfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ansible.deps")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseDeps(t *testing.T) {
	path := writeFile(t, `# dependencies for ansible 7.0.0
_ansible_version: 7.0.0
_ansible_core_version: 2.14.0
_python: 3.9

community.general: 6.0.1
community.dns: 2.3.4
`)

	deps, err := ParseDeps(path)
	require.NoError(t, err)

	assert.Equal(t, "7.0.0", deps.Ansible)
	assert.Equal(t, "2.14.0", deps.AnsibleCore)
	assert.Equal(t, "3.9", deps.Python)
	assert.Equal(t, map[string]string{
		"community.general": "6.0.1",
		"community.dns":     "2.3.4",
	}, deps.Collections)
}

func TestParseDepsLegacyBaseKey(t *testing.T) {
	path := writeFile(t, "_ansible_version: 3.0.0\n_ansible_base_version: 2.10.7\n")

	deps, err := ParseDeps(path)
	require.NoError(t, err)
	assert.Equal(t, "2.10.7", deps.AnsibleCore)
}

func TestParseDepsInvalidLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
	}{
		{"missing colon", "_ansible_version: 7.0.0\ncommunity.general\n", 2},
		{"empty value", "community.general:\n", 1},
		{"empty key", ": 6.0.1\n", 1},
		{"duplicate key", "community.general: 6.0.0\ncommunity.general: 6.0.1\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDeps(writeFile(t, tt.content))

			var formatErr *InvalidFormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, tt.line, formatErr.Line)
		})
	}
}

func TestParseDepsMissingFile(t *testing.T) {
	_, err := ParseDeps(filepath.Join(t.TempDir(), "missing.deps"))
	assert.Error(t, err)
}

func TestWriteDepsSortedAndRereadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ansible.deps")
	deps := &Deps{
		Ansible:     "7.0.0",
		AnsibleCore: "2.14.0",
		Collections: map[string]string{
			"community.general": "6.0.1",
			"ansible.netcommon": "4.1.0",
			"community.dns":     "2.3.4",
		},
	}

	require.NoError(t, WriteDeps(path, deps))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `_ansible_version: 7.0.0
_ansible_core_version: 2.14.0
ansible.netcommon: 4.1.0
community.dns: 2.3.4
community.general: 6.0.1
`, string(data))

	reread, err := ParseDeps(path)
	require.NoError(t, err)
	assert.Equal(t, deps, reread)
}

func TestParseBuild(t *testing.T) {
	path := writeFile(t, `_ansible_version: 7
_ansible_core_version: 2.14
community.general: >=6.0.0,<7.0.0
community.dns: >=2.0.0,<3.0.0
`)

	build, err := ParseBuild(path)
	require.NoError(t, err)

	assert.Equal(t, "7", build.AnsibleVersion)
	assert.Equal(t, "2.14", build.AnsibleCoreVersion)
	assert.Equal(t, ">=6.0.0,<7.0.0", build.Constraints["community.general"])
}

func TestWriteBuildRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ansible.build")
	build := &Build{
		AnsibleVersion:     "7",
		AnsibleCoreVersion: "2.14",
		Constraints: map[string]string{
			"community.general": ">=6.0.0,<7.0.0",
		},
	}

	require.NoError(t, WriteBuild(path, build))

	reread, err := ParseBuild(path)
	require.NoError(t, err)
	assert.Equal(t, build, reread)
}
