package pypi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSourceTree(t *testing.T, version string) string {
	t.Helper()
	dir := t.TempDir()
	releaseDir := filepath.Join(dir, "lib", "ansible")
	require.NoError(t, os.MkdirAll(releaseDir, 0755))
	content := "from __future__ import annotations\n\n__version__ = '" + version + "'\n__author__ = 'Ansible, Inc.'\n"
	require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "release.py"), []byte(content), 0644))
	return dir
}

func TestSourceVersion(t *testing.T) {
	dir := writeSourceTree(t, "2.14.0rc1")

	v, err := SourceVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, "2.14.0-rc1", v.String())
}

func TestSourceVersionMissingTree(t *testing.T) {
	_, err := SourceVersion(t.TempDir())
	assert.Error(t, err)
}

func TestSourceIsDevel(t *testing.T) {
	assert.True(t, SourceIsDevel(writeSourceTree(t, "2.15.0.dev0")))
	assert.False(t, SourceIsDevel(writeSourceTree(t, "2.14.0")))
	assert.False(t, SourceIsDevel(t.TempDir()))
}

func TestSourceIsCorrectVersion(t *testing.T) {
	dir := writeSourceTree(t, "2.14.2")

	assert.True(t, SourceIsCorrectVersion(dir, semver.MustParse("2.14.2")))
	assert.True(t, SourceIsCorrectVersion(dir, semver.MustParse("2.14.1")), "newer tree can build older patch releases")
	assert.False(t, SourceIsCorrectVersion(dir, semver.MustParse("2.14.3")), "tree is older than the request")
	assert.False(t, SourceIsCorrectVersion(dir, semver.MustParse("2.13.2")), "minor version must match")
	assert.False(t, SourceIsCorrectVersion(t.TempDir(), semver.MustParse("2.14.2")))
}
