// Package tarball packs and unpacks the .tar.gz artifacts that
// collections and sdists ship as.
package tarball

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// InvalidTarballError reports a tarball that does not have the expected
// shape (exactly one toplevel directory named after the file).
type InvalidTarballError struct {
	Tarball string
	Reason  string
}

func (e *InvalidTarballError) Error() string {
	return fmt.Sprintf("tarball: %s: %s", e.Tarball, e.Reason)
}

// Unpack extracts a .tar.gz into destdir. The archive must contain
// exactly one toplevel directory whose name matches the tarball's
// basename without the .tar.gz suffix; its path under destdir is
// returned. Entries that would escape destdir are rejected.
func Unpack(tarname, destdir string) (string, error) {
	f, err := os.Open(tarname)
	if err != nil {
		return "", fmt.Errorf("tarball: open %s: %w", tarname, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", &InvalidTarballError{Tarball: tarname, Reason: fmt.Sprintf("not gzip data: %v", err)}
	}
	defer gz.Close()

	toplevels := make(map[string]bool)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &InvalidTarballError{Tarball: tarname, Reason: fmt.Sprintf("corrupt archive: %v", err)}
		}

		name := filepath.Clean(hdr.Name)
		if name == "." {
			continue
		}
		if strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			return "", &InvalidTarballError{Tarball: tarname, Reason: fmt.Sprintf("entry %q escapes the destination", hdr.Name)}
		}
		toplevels[strings.SplitN(name, string(filepath.Separator), 2)[0]] = true

		target := filepath.Join(destdir, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(hdr.Mode).Perm()|0700); err != nil {
				return "", fmt.Errorf("tarball: create %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := extractFile(tr, target, fs.FileMode(hdr.Mode).Perm()); err != nil {
				return "", fmt.Errorf("tarball: extract %s: %w", hdr.Name, err)
			}
		default:
			// Symlinks and special files have no business in release
			// artifacts.
			return "", &InvalidTarballError{Tarball: tarname, Reason: fmt.Sprintf("unsupported entry type for %q", hdr.Name)}
		}
	}

	if len(toplevels) != 1 {
		return "", &InvalidTarballError{Tarball: tarname, Reason: fmt.Sprintf("expected a single toplevel directory, found %d", len(toplevels))}
	}

	var toplevel string
	for name := range toplevels {
		toplevel = name
	}
	expected := strings.TrimSuffix(filepath.Base(tarname), ".tar.gz")
	if toplevel != expected {
		return "", &InvalidTarballError{Tarball: tarname, Reason: fmt.Sprintf("toplevel directory %q does not match %q", toplevel, expected)}
	}

	return filepath.Join(destdir, toplevel), nil
}

func extractFile(r io.Reader, target string, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Pack creates a .tar.gz of directory at tarname. Entries are written
// in sorted order with the directory's basename as the single toplevel,
// so packing the same tree twice yields the same archive layout.
func Pack(directory, tarname string) error {
	info, err := os.Stat(directory)
	if err != nil {
		return fmt.Errorf("tarball: stat %s: %w", directory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("tarball: %s is not a directory", directory)
	}

	var paths []string
	err = filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != directory {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tarball: walk %s: %w", directory, err)
	}
	sort.Strings(paths)

	out, err := os.Create(tarname)
	if err != nil {
		return fmt.Errorf("tarball: create %s: %w", tarname, err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	base := filepath.Base(directory)
	if err := tw.WriteHeader(&tar.Header{
		Name:     base + "/",
		Typeflag: tar.TypeDir,
		Mode:     0755,
	}); err != nil {
		return fmt.Errorf("tarball: write header: %w", err)
	}

	for _, path := range paths {
		rel, err := filepath.Rel(directory, path)
		if err != nil {
			return fmt.Errorf("tarball: relativize %s: %w", path, err)
		}
		name := filepath.ToSlash(filepath.Join(base, rel))

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("tarball: stat %s: %w", path, err)
		}
		if info.IsDir() {
			if err := tw.WriteHeader(&tar.Header{
				Name:     name + "/",
				Typeflag: tar.TypeDir,
				Mode:     0755,
			}); err != nil {
				return fmt.Errorf("tarball: write header: %w", err)
			}
			continue
		}

		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     int64(info.Mode().Perm()),
			Size:     info.Size(),
		}); err != nil {
			return fmt.Errorf("tarball: write header: %w", err)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("tarball: open %s: %w", path, err)
		}
		if _, err := io.Copy(tw, f); err != nil {
			_ = f.Close()
			return fmt.Errorf("tarball: add %s: %w", path, err)
		}
		_ = f.Close()
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("tarball: finalize archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("tarball: finalize gzip: %w", err)
	}
	return out.Close()
}
