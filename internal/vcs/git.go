// Package vcs wraps the local git operations the issue workflows need:
// branch creation, checkout, commit, push. All commands run against a fixed
// repository root via the git CLI.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Git provides git operations for a repository.
type Git struct {
	repoRoot string
}

// New creates a Git instance for the given repository root.
func New(repoRoot string) *Git {
	return &Git{repoRoot: repoRoot}
}

// Root returns the repository root path.
func (g *Git) Root() string {
	return g.repoRoot
}

// CurrentBranch returns the current branch name.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("get current branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Fetch updates remote tracking refs.
func (g *Git) Fetch(ctx context.Context, remote string) error {
	if _, err := g.run(ctx, "fetch", remote); err != nil {
		return fmt.Errorf("git fetch: %w", err)
	}
	return nil
}

// Checkout switches to the given ref.
func (g *Git) Checkout(ctx context.Context, ref string) error {
	if _, err := g.run(ctx, "checkout", ref); err != nil {
		return fmt.Errorf("git checkout %s: %w", ref, err)
	}
	return nil
}

// Pull fast-forwards the current branch from the remote.
func (g *Git) Pull(ctx context.Context, remote, branch string) error {
	if _, err := g.run(ctx, "pull", remote, branch); err != nil {
		return fmt.Errorf("git pull: %w", err)
	}
	return nil
}

// CreateBranch creates and checks out a new branch from base.
func (g *Git) CreateBranch(ctx context.Context, name, base string) error {
	if _, err := g.run(ctx, "checkout", "-b", name, base); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// Push publishes the branch, setting its upstream on first push.
func (g *Git) Push(ctx context.Context, remote, branch string) error {
	if _, err := g.run(ctx, "push", "--set-upstream", remote, branch); err != nil {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}

// HasChanges reports whether the worktree has uncommitted changes.
func (g *Git) HasChanges(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitAll stages everything and commits with the given message.
func (g *Git) CommitAll(ctx context.Context, message string) error {
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	if _, err := g.run(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", fmt.Errorf("%s", errMsg)
	}
	return stdout.String(), nil
}
