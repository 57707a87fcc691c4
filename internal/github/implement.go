package github

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/smartworkx/minion/internal/agent"
	"github.com/smartworkx/minion/internal/claim"
	"github.com/smartworkx/minion/internal/conversation"
	"github.com/smartworkx/minion/internal/events"
	"github.com/smartworkx/minion/internal/ledger"
	"github.com/smartworkx/minion/internal/provider"
	"github.com/smartworkx/minion/internal/tools"
	"github.com/smartworkx/minion/internal/vcs"
)

const implementSystemPrompt = `You are an autonomous implementation agent. You have been given a GitHub issue with an approved plan.

Your job is to implement the plan exactly as described. You have access to tools for reading files, writing files, running shell commands, and git operations.

IMPORTANT RULES:
- Follow the plan closely. Do not deviate unless there's a clear technical reason.
- Write clean, well-structured code that matches existing patterns.
- Do NOT commit or push. That will be handled after you finish.
- Do NOT create unnecessary files or add extra features not in the plan.
`

const missingPlanComment = "Could not find an approved plan comment with a branch. " +
	"Please ensure a plan was posted with the `## Implementation Plan` " +
	"header and `*Branch: \\`branch-name\\`*` line."

const planHeader = "## Implementation Plan"

var branchPattern = regexp.MustCompile("\\*Branch: `([^`]+)`\\*")

// ImplementHandler executes an approved plan on its branch and opens a PR.
type ImplementHandler struct {
	loop       *agent.Loop
	store      *ledger.Ledger
	claimer    *claim.Broadcaster
	host       Host
	git        *vcs.Git
	labels     Labels
	agentName  string
	baseBranch string
}

// NewImplementHandler creates the implement workflow handler. registry
// carries the full read-write tool set.
func NewImplementHandler(prov provider.LLMProvider, registry *tools.Registry, store *ledger.Ledger, claimer *claim.Broadcaster, host Host, git *vcs.Git, labels Labels, agentName, model, baseBranch string) *ImplementHandler {
	if baseBranch == "" {
		baseBranch = "master"
	}
	return &ImplementHandler{
		loop: agent.NewLoop(agent.LoopOptions{
			Provider:     prov,
			Registry:     registry,
			SystemPrompt: implementSystemPrompt,
			Model:        model,
			MaxRounds:    agent.ImplementMaxRounds,
		}),
		store:      store,
		claimer:    claimer,
		host:       host,
		git:        git,
		labels:     labels,
		agentName:  agentName,
		baseBranch: baseBranch,
	}
}

// EventTypes implements events.Handler.
func (h *ImplementHandler) EventTypes() []string {
	return []string{EventImplement}
}

// Handle implements one issue. The ledger insert is the real claim; the
// broadcast only tells other instances about it. A missing plan ends the
// task as failed without an error, since retrying cannot fix it.
func (h *ImplementHandler) Handle(ctx context.Context, event *events.Event) (string, error) {
	number, title, _ := issuePayload(event)
	taskID := ImplementTaskID(number)

	inserted, err := h.store.CreateTask(taskID, "github", fmt.Sprintf("%d", number), h.agentName, title)
	if err != nil {
		return "", fmt.Errorf("create task %s: %w", taskID, err)
	}
	if !inserted {
		slog.Info("Task already claimed, skipping", "task_id", taskID)
		return "", nil
	}

	h.claimer.TryClaim(ctx, taskID)

	slog.Info("Implementing issue", "number", number, "title", title)

	result, err := h.implement(ctx, taskID, number, title)
	if err != nil {
		if serr := h.store.UpdateStatus(taskID, ledger.StatusFailed); serr != nil {
			slog.Error("Failed to mark task failed", "task_id", taskID, "error", serr)
		}
		return "", err
	}
	return result, nil
}

func (h *ImplementHandler) implement(ctx context.Context, taskID string, number int, title string) (string, error) {
	if err := h.host.ReplaceLabel(ctx, number, h.labels.Implement, h.labels.Implementing); err != nil {
		return "", fmt.Errorf("update labels for issue #%d: %w", number, err)
	}

	comments, err := h.host.GetIssueComments(ctx, number)
	if err != nil {
		return "", fmt.Errorf("fetch comments for issue #%d: %w", number, err)
	}

	plan, branch := ExtractPlan(comments)
	if plan == "" || branch == "" {
		if err := h.host.CreateComment(ctx, number, missingPlanComment); err != nil {
			slog.Error("Failed to post clarification", "number", number, "error", err)
		}
		slog.Error("No plan found", "number", number)
		if err := h.store.UpdateStatus(taskID, ledger.StatusFailed); err != nil {
			slog.Error("Failed to mark task failed", "task_id", taskID, "error", err)
		}
		return "", nil
	}

	if err := h.git.Fetch(ctx, "origin"); err != nil {
		return "", err
	}
	if err := h.git.Checkout(ctx, branch); err != nil {
		return "", err
	}
	if err := h.git.Pull(ctx, "origin", branch); err != nil {
		return "", err
	}

	conv := conversation.New(200)
	conv.AddUser(fmt.Sprintf(
		"GitHub Issue #%d: %s\n\nApproved plan:\n\n%s\n\nImplement this plan now. The branch `%s` is already checked out.",
		number, title, plan, branch,
	))

	result, err := h.loop.Run(ctx, conv)
	if err != nil {
		return "", fmt.Errorf("implement issue #%d: %w", number, err)
	}

	if err := h.commitAndPush(ctx, branch, number, title); err != nil {
		return "", err
	}

	prBody := fmt.Sprintf("Closes #%d\n\nImplemented by minion agent.", number)
	if err := h.host.CreatePullRequest(ctx, h.baseBranch, branch, title, prBody); err != nil {
		return "", fmt.Errorf("create PR for issue #%d: %w", number, err)
	}

	if err := h.host.ReplaceLabel(ctx, number, h.labels.Implementing, h.labels.Done); err != nil {
		return "", fmt.Errorf("update labels for issue #%d: %w", number, err)
	}
	if err := h.git.Checkout(ctx, h.baseBranch); err != nil {
		return "", err
	}

	if err := h.store.UpdateStatus(taskID, ledger.StatusDone); err != nil {
		slog.Error("Failed to mark task done", "task_id", taskID, "error", err)
	}
	slog.Info("Implementation complete", "number", number)
	return result, nil
}

func (h *ImplementHandler) commitAndPush(ctx context.Context, branch string, number int, title string) error {
	dirty, err := h.git.HasChanges(ctx)
	if err != nil {
		return err
	}
	if !dirty {
		slog.Info("No changes to commit", "number", number)
		return nil
	}
	message := fmt.Sprintf("#%d %s\n\nImplemented by minion agent.", number, title)
	if err := h.git.CommitAll(ctx, message); err != nil {
		return err
	}
	return h.git.Push(ctx, "origin", branch)
}

// ExtractPlan scans comments newest first for a plan comment and returns
// its full body plus the branch it names. Empty strings mean no usable
// plan was found.
func ExtractPlan(comments []Comment) (plan, branch string) {
	for i := len(comments) - 1; i >= 0; i-- {
		body := comments[i].Body
		if !strings.Contains(body, planHeader) {
			continue
		}
		m := branchPattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		return body, m[1]
	}
	return "", ""
}
