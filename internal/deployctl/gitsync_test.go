package deployctl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

// initSourceRepo builds a local repository to stand in for the remote and
// returns its path plus a helper that adds commits to it.
func initSourceRepo(t *testing.T) (string, func(name, content string)) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commit := func(name, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		wt, err := repo.Worktree()
		require.NoError(t, err)
		_, err = wt.Add(name)
		require.NoError(t, err)
		_, err = wt.Commit("add "+name, &git.CommitOptions{
			Author: &object.Signature{
				Name:  "tester",
				Email: "tester@example.com",
				When:  time.Now(),
			},
		})
		require.NoError(t, err)
	}

	commit("README.md", "dashboard\n")
	return dir, commit
}

func TestSyncClonesMissingRepo(t *testing.T) {
	src, _ := initSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "install")

	s := Syncer{Log: logger.Nop()}
	action, err := s.Sync(context.Background(), src, "master", dest)
	require.NoError(t, err)
	assert.Equal(t, SyncCloned, action)
	assert.FileExists(t, filepath.Join(dest, "README.md"))
}

func TestSyncUpToDate(t *testing.T) {
	src, _ := initSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "install")

	s := Syncer{Log: logger.Nop()}
	_, err := s.Sync(context.Background(), src, "master", dest)
	require.NoError(t, err)

	action, err := s.Sync(context.Background(), src, "master", dest)
	require.NoError(t, err)
	assert.Equal(t, SyncUpToDate, action)
}

func TestSyncPullsNewCommits(t *testing.T) {
	src, commit := initSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "install")

	s := Syncer{Log: logger.Nop()}
	_, err := s.Sync(context.Background(), src, "master", dest)
	require.NoError(t, err)

	commit("compose.yml", "services: {}\n")

	action, err := s.Sync(context.Background(), src, "master", dest)
	require.NoError(t, err)
	assert.Equal(t, SyncPulled, action)
	assert.FileExists(t, filepath.Join(dest, "compose.yml"))
}

func TestSyncActionString(t *testing.T) {
	assert.Equal(t, "cloned", SyncCloned.String())
	assert.Equal(t, "pulled", SyncPulled.String())
	assert.Equal(t, "up-to-date", SyncUpToDate.String())
}
