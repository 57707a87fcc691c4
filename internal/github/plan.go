package github

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/smartworkx/minion/internal/agent"
	"github.com/smartworkx/minion/internal/conversation"
	"github.com/smartworkx/minion/internal/events"
	"github.com/smartworkx/minion/internal/ledger"
	"github.com/smartworkx/minion/internal/provider"
	"github.com/smartworkx/minion/internal/tools"
	"github.com/smartworkx/minion/internal/vcs"
)

const planSystemPrompt = `You are an autonomous planning agent. You have been given a GitHub issue to analyze.

Your job is to:
1. Read and understand the issue
2. Explore the codebase using the available tools (file_read, git, shell)
3. Produce a detailed implementation plan

IMPORTANT RULES:
- Do NOT modify any files. Only read and explore.
- Use the tools to understand the codebase structure, read relevant files, and trace code paths.
- Be thorough: read actual code, don't guess.

When you are done exploring, write your plan in this exact format:

## Implementation Plan

### Summary
[1-2 sentence summary of what needs to be done]

### Files to modify
[List each file with what changes are needed]

### Files to create
[List each new file with its purpose, if any]

### Implementation steps
[Numbered list of concrete steps]

### Testing
[How to verify the implementation works]
`

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns an issue title into a branch-name fragment: lowercased,
// non-alphanumeric runs collapsed to "-", capped at 50 chars.
func Slugify(title string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 50 {
		slug = slug[:50]
	}
	return slug
}

// BranchName derives the work branch for an issue.
func BranchName(number int, title string) string {
	return fmt.Sprintf("issue-%d-%s", number, Slugify(title))
}

// PlanHandler turns a labelled issue into an implementation plan comment
// and a pushed work branch. The agent loop runs with read-only tools.
type PlanHandler struct {
	loop       *agent.Loop
	store      *ledger.Ledger
	host       Host
	git        *vcs.Git
	labels     Labels
	agentName  string
	baseBranch string
}

// NewPlanHandler creates the plan workflow handler. registry should expose
// only read-only tools.
func NewPlanHandler(prov provider.LLMProvider, registry *tools.Registry, store *ledger.Ledger, host Host, git *vcs.Git, labels Labels, agentName, model, baseBranch string) *PlanHandler {
	if baseBranch == "" {
		baseBranch = "master"
	}
	return &PlanHandler{
		loop: agent.NewLoop(agent.LoopOptions{
			Provider:     prov,
			Registry:     registry,
			SystemPrompt: planSystemPrompt,
			Model:        model,
			MaxRounds:    agent.PlanMaxRounds,
		}),
		store:      store,
		host:       host,
		git:        git,
		labels:     labels,
		agentName:  agentName,
		baseBranch: baseBranch,
	}
}

// EventTypes implements events.Handler.
func (h *PlanHandler) EventTypes() []string {
	return []string{EventPlan}
}

// Handle plans one issue end to end. A duplicate task id means another
// instance (or an earlier cycle) owns the issue; the event is dropped.
func (h *PlanHandler) Handle(ctx context.Context, event *events.Event) (string, error) {
	number, title, body := issuePayload(event)
	taskID := PlanTaskID(number)

	inserted, err := h.store.CreateTask(taskID, "github", fmt.Sprintf("%d", number), h.agentName, title)
	if err != nil {
		return "", fmt.Errorf("create task %s: %w", taskID, err)
	}
	if !inserted {
		slog.Info("Task already claimed, skipping", "task_id", taskID)
		return "", nil
	}

	slog.Info("Planning issue", "number", number, "title", title)

	plan, err := h.plan(ctx, number, title, body)
	if err != nil {
		if serr := h.store.UpdateStatus(taskID, ledger.StatusFailed); serr != nil {
			slog.Error("Failed to mark task failed", "task_id", taskID, "error", serr)
		}
		return "", err
	}

	if err := h.store.UpdateStatus(taskID, ledger.StatusDone); err != nil {
		slog.Error("Failed to mark task done", "task_id", taskID, "error", err)
	}
	slog.Info("Plan posted", "number", number)
	return plan, nil
}

func (h *PlanHandler) plan(ctx context.Context, number int, title, body string) (string, error) {
	conv := conversation.New(100)
	conv.AddUser(fmt.Sprintf(
		"GitHub Issue #%d: %s\n\n%s\n\nExplore the codebase and create a detailed implementation plan.",
		number, title, body,
	))

	plan, err := h.loop.Run(ctx, conv)
	if err != nil {
		return "", fmt.Errorf("plan issue #%d: %w", number, err)
	}

	branch := BranchName(number, title)
	if err := h.createBranch(ctx, branch); err != nil {
		return "", err
	}

	comment := fmt.Sprintf("%s\n\n*Branch: `%s`*", plan, branch)
	if err := h.host.CreateComment(ctx, number, comment); err != nil {
		return "", fmt.Errorf("post plan for issue #%d: %w", number, err)
	}

	if err := h.host.ReplaceLabel(ctx, number, h.labels.Plan, h.labels.Planned); err != nil {
		return "", fmt.Errorf("update labels for issue #%d: %w", number, err)
	}

	if err := h.git.Checkout(ctx, h.baseBranch); err != nil {
		return "", err
	}
	return plan, nil
}

func (h *PlanHandler) createBranch(ctx context.Context, branch string) error {
	if err := h.git.Checkout(ctx, h.baseBranch); err != nil {
		return err
	}
	if err := h.git.Pull(ctx, "origin", h.baseBranch); err != nil {
		return err
	}
	if err := h.git.CreateBranch(ctx, branch, h.baseBranch); err != nil {
		return err
	}
	return h.git.Push(ctx, "origin", branch)
}

func issuePayload(event *events.Event) (number int, title, body string) {
	switch n := event.Payload["number"].(type) {
	case int:
		number = n
	case float64:
		number = int(n)
	}
	title, _ = event.Payload["title"].(string)
	body, _ = event.Payload["body"].(string)
	return number, title, body
}
