package pypi

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// BuildError reports a failed sdist build.
type BuildError struct {
	SourceDir string
	Reason    string
	Output    string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build sdist in %s: %s", e.SourceDir, e.Reason)
}

// BuildSdist runs an sdist build in sourceDir, placing the result in
// distDir. The build must produce exactly one tarball; its path is
// returned.
func BuildSdist(ctx context.Context, sourceDir, distDir string) (string, error) {
	cmd := exec.CommandContext(ctx, "python", "setup.py", "sdist", "--dist-dir", distDir)
	cmd.Dir = sourceDir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", &BuildError{
			SourceDir: sourceDir,
			Reason:    err.Error(),
			Output:    strings.TrimSpace(string(output)),
		}
	}

	tarballs, err := filepath.Glob(filepath.Join(distDir, "*.tar.gz"))
	if err != nil {
		return "", fmt.Errorf("list dist dir %s: %w", distDir, err)
	}
	if len(tarballs) != 1 {
		return "", &BuildError{
			SourceDir: sourceDir,
			Reason:    fmt.Sprintf("expected exactly one tarball in %s, found %d", distDir, len(tarballs)),
		}
	}
	return tarballs[0], nil
}
