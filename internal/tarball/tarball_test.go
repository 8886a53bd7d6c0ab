package tarball

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeArchive builds a .tar.gz at path from name/content pairs. A
// content of "" with a trailing slash in the name creates a directory.
func writeArchive(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		if name[len(name)-1] == '/' {
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name: name, Typeflag: tar.TypeDir, Mode: 0755,
			}))
			continue
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

func TestUnpack(t *testing.T) {
	dir := t.TempDir()
	tarname := filepath.Join(dir, "community-dns-2.3.4.tar.gz")
	writeArchive(t, tarname, map[string]string{
		"community-dns-2.3.4/":                "",
		"community-dns-2.3.4/galaxy.yml":      "namespace: community\n",
		"community-dns-2.3.4/plugins/doc.txt": "docs",
	})

	dest := t.TempDir()
	unpacked, err := Unpack(tarname, dest)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "community-dns-2.3.4"), unpacked)
	data, err := os.ReadFile(filepath.Join(unpacked, "galaxy.yml"))
	require.NoError(t, err)
	assert.Equal(t, "namespace: community\n", string(data))
	assert.FileExists(t, filepath.Join(unpacked, "plugins", "doc.txt"))
}

func TestUnpackRejectsMultipleToplevels(t *testing.T) {
	dir := t.TempDir()
	tarname := filepath.Join(dir, "ansible-core-2.14.0.tar.gz")
	writeArchive(t, tarname, map[string]string{
		"ansible-core-2.14.0/setup.py": "",
		"stray.txt":                    "oops",
	})

	_, err := Unpack(tarname, t.TempDir())

	var invalid *InvalidTarballError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "single toplevel")
}

func TestUnpackRejectsMismatchedToplevel(t *testing.T) {
	dir := t.TempDir()
	tarname := filepath.Join(dir, "ansible-core-2.14.0.tar.gz")
	writeArchive(t, tarname, map[string]string{
		"something-else/setup.py": "",
	})

	_, err := Unpack(tarname, t.TempDir())

	var invalid *InvalidTarballError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "does not match")
}

func TestUnpackRejectsEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	tarname := filepath.Join(dir, "evil-1.0.0.tar.gz")
	writeArchive(t, tarname, map[string]string{
		"../escape.txt": "outside",
	})

	dest := t.TempDir()
	_, err := Unpack(tarname, dest)

	var invalid *InvalidTarballError
	require.ErrorAs(t, err, &invalid)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "escape.txt"))
}

func TestUnpackRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	tarname := filepath.Join(dir, "junk-1.0.0.tar.gz")
	require.NoError(t, os.WriteFile(tarname, []byte("not a tarball"), 0644))

	_, err := Unpack(tarname, t.TempDir())

	var invalid *InvalidTarballError
	require.ErrorAs(t, err, &invalid)
}

func TestPackRoundTrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "community-dns-2.3.4")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "plugins"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "galaxy.yml"), []byte("name: dns\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "plugins", "mod.py"), []byte("pass\n"), 0644))

	tarname := filepath.Join(t.TempDir(), "community-dns-2.3.4.tar.gz")
	require.NoError(t, Pack(src, tarname))

	unpacked, err := Unpack(tarname, t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(unpacked, "galaxy.yml"))
	require.NoError(t, err)
	assert.Equal(t, "name: dns\n", string(data))
	data, err = os.ReadFile(filepath.Join(unpacked, "plugins", "mod.py"))
	require.NoError(t, err)
	assert.Equal(t, "pass\n", string(data))
}

func TestPackRejectsFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := Pack(file, filepath.Join(t.TempDir(), "out.tar.gz"))
	assert.Error(t, err)
}
