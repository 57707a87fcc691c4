package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DeniedGitPatterns lists literal substrings that block a git invocation.
// Checked before anything else so a dangerous flag is refused even inside
// an otherwise valid command.
var DeniedGitPatterns = []string{
	"push --force",
	"push -f",
	"reset --hard",
	"clean -f",
	"branch -D",
}

// GitTool runs git commands inside a fixed set of allowed repositories.
type GitTool struct {
	allowedRepos []string
	timeout      time.Duration
}

// NewGitTool creates a git tool restricted to the given repository roots.
func NewGitTool(allowedRepos []string, timeout time.Duration) *GitTool {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &GitTool{allowedRepos: normalizeRoots(allowedRepos), timeout: timeout}
}

func (t *GitTool) Name() string { return "git" }

func (t *GitTool) Description() string {
	return "Run a git command in one of the allowed repositories. Destructive operations (force push, hard reset, branch -D) are blocked."
}

func (t *GitTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"repo": map[string]any{
				"type":        "string",
				"description": "Path to the repository to operate on",
			},
			"args": map[string]any{
				"type":        "string",
				"description": "Git arguments, e.g. 'status' or 'log --oneline -5'",
			},
		},
		"required": []string{"repo", "args"},
	}
}

func (t *GitTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	repo := GetString(params, "repo", "")
	args := GetString(params, "args", "")

	if repo == "" || args == "" {
		return "Error: repo and args are required", nil
	}

	for _, pattern := range DeniedGitPatterns {
		if strings.Contains(args, pattern) {
			return fmt.Sprintf("Error: dangerous git command blocked: '%s'", pattern), nil
		}
	}

	repo = expandPath(repo)
	if !pathAllowed(t.allowedRepos, repo) {
		return fmt.Sprintf("Error: repository not allowed: %s", repo), nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", "git "+args)
	cmd.Dir = repo

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	var result strings.Builder
	if stdout.Len() > 0 {
		result.WriteString(stdout.String())
	}
	if stderr.Len() > 0 {
		if result.Len() > 0 {
			result.WriteString("\n")
		}
		result.WriteString("STDERR:\n")
		result.WriteString(stderr.String())
	}

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("Error: command timed out after %ds\n%s", int(t.timeout.Seconds()), result.String()), nil
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.WriteString(fmt.Sprintf("\nExit code: %d", exitErr.ExitCode()))
		} else {
			return fmt.Sprintf("Error executing command: %v", err), nil
		}
	}

	if result.Len() == 0 {
		return "(no output)", nil
	}
	return result.String(), nil
}
