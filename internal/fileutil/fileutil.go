// Package fileutil provides checked file copies and atomic writes.
package fileutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyOptions controls CopyFile.
type CopyOptions struct {
	// ContentCheckLimit enables the skip-if-identical check: when the
	// destination exists, both files have the same size, and that size
	// is within this byte budget, contents are compared and an
	// identical destination is left untouched. 0 disables the check.
	ContentCheckLimit int
}

// CopyFile copies src to dest. The destination is replaced atomically
// (temp file + rename) so readers never observe a partial copy. With a
// content check configured, an identical existing destination is not
// rewritten, which keeps its modification time stable.
func CopyFile(src, dest string, opts CopyOptions) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if opts.ContentCheckLimit > 0 {
		same, err := sameContent(src, dest, srcInfo.Size(), int64(opts.ContentCheckLimit))
		if err != nil {
			return err
		}
		if same {
			return nil
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), srcInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("rename to %s: %w", dest, err)
	}
	return nil
}

// sameContent reports whether dest exists with exactly src's content,
// limited to files within the byte budget.
func sameContent(src, dest string, srcSize, limit int64) (bool, error) {
	destInfo, err := os.Stat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", dest, err)
	}
	if destInfo.Size() != srcSize || srcSize > limit {
		return false, nil
	}

	srcData, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", src, err)
	}
	destData, err := os.ReadFile(dest)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", dest, err)
	}
	return bytes.Equal(srcData, destData), nil
}

// WriteAtomic writes data to path via a temp file and rename.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
