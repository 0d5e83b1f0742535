package utils

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitOperations reads repository facts through the git binary.
type GitOperations struct {
	workingDir string
}

func NewGitOperations(workingDir string) *GitOperations {
	return &GitOperations{workingDir: workingDir}
}

func (g *GitOperations) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// CheckGitRepo checks if the working directory is inside a git repository.
func (g *GitOperations) CheckGitRepo(ctx context.Context) error {
	if _, err := g.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return fmt.Errorf("not a git repository: %s", g.workingDir)
	}
	return nil
}

// GetTopLevel returns the root directory of the working tree.
func (g *GitOperations) GetTopLevel(ctx context.Context) (string, error) {
	top, err := g.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to get repository root: %w", err)
	}
	return top, nil
}

// GetBranchName returns the current branch name.
func (g *GitOperations) GetBranchName(ctx context.Context) (string, error) {
	branch, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get branch name: %w", err)
	}
	return branch, nil
}

// GetRemoteURL returns the origin URL, or "" when no origin is configured.
func (g *GitOperations) GetRemoteURL(ctx context.Context) string {
	remote, err := g.run(ctx, "config", "--get", "remote.origin.url")
	if err != nil {
		return ""
	}
	return remote
}
