package manifest

import (
	"github.com/go-git/go-git/v5"
)

// GitMeta holds commit metadata stamped into build args and reports.
type GitMeta struct {
	SHA    string // short commit hash
	Branch string // empty on detached HEAD
}

// DetectGit resolves commit metadata for rootDir.
// Returns nil when rootDir is not a git repository — builds outside a
// checkout are still valid, they just aren't stamped.
func DetectGit(rootDir string) *GitMeta {
	repo, err := git.PlainOpen(rootDir)
	if err != nil {
		return nil
	}

	head, err := repo.Head()
	if err != nil {
		return nil
	}

	gm := &GitMeta{SHA: head.Hash().String()[:7]}
	if head.Name().IsBranch() {
		gm.Branch = head.Name().Short()
	}
	return gm
}
