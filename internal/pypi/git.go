package pypi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// DevelBranch is the branch the next ansible-core release is developed
// on.
const DevelBranch = "devel"

// CheckoutFromGit clones the ansible-core repository's devel branch
// into checkoutDir and returns the path of the new working tree.
func CheckoutFromGit(ctx context.Context, checkoutDir, repoURL string) (string, error) {
	localPath := filepath.Join(checkoutDir, "ansible")

	_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
		URL:           repoURL,
		ReferenceName: plumbing.NewBranchReferenceName(DevelBranch),
		SingleBranch:  true,
		Depth:         1,
	})
	if err != nil {
		// Clean up partial clone on failure (best-effort)
		_ = os.RemoveAll(localPath)
		return "", fmt.Errorf("clone %s: %w", repoURL, err)
	}
	return localPath, nil
}
