package utils

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initGitRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "remote.origin.url", "https://example.com/acme/shop.git"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	return dir
}

func TestGitOperations_Repository(t *testing.T) {
	dir := initGitRepo(t)
	git := NewGitOperations(dir)
	ctx := context.Background()

	require.NoError(t, git.CheckGitRepo(ctx))
	assert.Equal(t, "https://example.com/acme/shop.git", git.GetRemoteURL(ctx))

	top, err := git.GetTopLevel(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, top)
}

func TestGitOperations_NotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	git := NewGitOperations(t.TempDir())
	ctx := context.Background()

	assert.Error(t, git.CheckGitRepo(ctx))
	assert.Empty(t, git.GetRemoteURL(ctx))
}
