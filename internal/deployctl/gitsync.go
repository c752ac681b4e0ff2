package deployctl

import (
	"context"
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

// SyncAction reports what the syncer did.
type SyncAction int

const (
	SyncCloned SyncAction = iota
	SyncPulled
	SyncUpToDate
)

func (a SyncAction) String() string {
	switch a {
	case SyncCloned:
		return "cloned"
	case SyncPulled:
		return "pulled"
	case SyncUpToDate:
		return "up-to-date"
	default:
		return "unknown"
	}
}

type Syncer struct {
	Log logger.Logger
}

// Sync converges the install dir onto the tracked branch: full clone when
// the dir is not a repository yet, fast-forward pull otherwise. A pull that
// would require a merge commit fails the step; there is no recovery logic.
func (s Syncer) Sync(ctx context.Context, repoURL, branch, dir string) (SyncAction, error) {
	ref := plumbing.NewBranchReferenceName(branch)

	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		s.Log.Info("cloning repository", zap.String("url", repoURL), zap.String("dir", dir))
		_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:           repoURL,
			ReferenceName: ref,
			SingleBranch:  true,
		})
		if err != nil {
			return 0, fmt.Errorf("clone %s: %w", repoURL, err)
		}
		return SyncCloned, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return 0, err
	}

	s.Log.Info("pulling repository", zap.String("dir", dir), zap.String("branch", branch))
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    git.DefaultRemoteName,
		ReferenceName: ref,
		SingleBranch:  true,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return SyncUpToDate, nil
	}
	if errors.Is(err, git.ErrNonFastForwardUpdate) {
		return 0, fmt.Errorf("pull %s: local history diverged: %w", dir, err)
	}
	if err != nil {
		return 0, fmt.Errorf("pull %s: %w", dir, err)
	}
	return SyncPulled, nil
}
