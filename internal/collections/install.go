// Package collections installs collection release tarballs into
// directory layouts ansible can load.
package collections

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/asteroid-belt/relcore/internal/tarball"
)

// FormatError reports a collection tarball whose filename does not
// follow the namespace-name-version.tar.gz convention.
type FormatError struct {
	Filename string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("collections: %q is not a namespace-name-version.tar.gz filename", e.Filename)
}

// splitFilename extracts namespace, name and version from a collection
// tarball filename. Versions may themselves contain dashes, so only the
// first two are separators.
func splitFilename(path string) (namespace, name, version string, err error) {
	base := filepath.Base(path)
	trimmed, ok := strings.CutSuffix(base, ".tar.gz")
	if !ok {
		return "", "", "", &FormatError{Filename: base}
	}
	parts := strings.SplitN(trimmed, "-", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", &FormatError{Filename: base}
	}
	return parts[0], parts[1], parts[2], nil
}

// InstallTogether unpacks collection tarballs into one shared tree,
// collectionsRoot/namespace/name per collection. At most limit unpacks
// run concurrently; limit <= 0 means no bound.
func InstallTogether(ctx context.Context, tarballs []string, collectionsRoot string, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, tarname := range tarballs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			namespace, name, _, err := splitFilename(tarname)
			if err != nil {
				return err
			}
			return installOne(tarname, filepath.Join(collectionsRoot, namespace, name))
		})
	}
	return g.Wait()
}

// InstallSeparately unpacks each collection tarball into its own
// directory under destRoot and returns the created directories in the
// order of the input. At most limit unpacks run concurrently.
func InstallSeparately(ctx context.Context, tarballs []string, destRoot string, limit int) ([]string, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	dirs := make([]string, len(tarballs))
	for i, tarname := range tarballs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, _, _, err := splitFilename(tarname); err != nil {
				return err
			}
			toplevel := strings.TrimSuffix(filepath.Base(tarname), ".tar.gz")
			dest := filepath.Join(destRoot, toplevel)
			if err := installOne(tarname, dest); err != nil {
				return err
			}
			dirs[i] = dest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dirs, nil
}

// installOne unpacks tarname next to dest and moves the unpacked tree
// into place, replacing whatever was there.
func installOne(tarname, dest string) error {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("create %s: %w", parent, err)
	}

	staging, err := os.MkdirTemp(parent, ".install-*")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(staging)
	}()

	unpacked, err := tarball.Unpack(tarname, staging)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("remove %s: %w", dest, err)
	}
	if err := os.Rename(unpacked, dest); err != nil {
		return fmt.Errorf("move into %s: %w", dest, err)
	}
	return nil
}
