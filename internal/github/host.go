// Package github implements the issue-driven workflows: a polling event
// source plus the plan and implement handlers.
package github

import (
	"context"
	"time"
)

// Issue is the host-neutral view of a tracker issue.
type Issue struct {
	Number int
	Title  string
	Body   string
	Labels []string
}

// Comment is one issue comment.
type Comment struct {
	Body      string
	CreatedAt time.Time
}

// Host abstracts the issue tracker so workflows can be tested against a
// fake and, in principle, pointed at another forge.
type Host interface {
	// ListOpenIssues returns open issues carrying the given label.
	ListOpenIssues(ctx context.Context, label string) ([]Issue, error)
	// GetIssueComments returns all comments on an issue, oldest first.
	GetIssueComments(ctx context.Context, number int) ([]Comment, error)
	// CreateComment posts a comment on an issue.
	CreateComment(ctx context.Context, number int, body string) error
	// ReplaceLabel removes one label and adds another.
	ReplaceLabel(ctx context.Context, number int, remove, add string) error
	// CreatePullRequest opens a PR from head into base.
	CreatePullRequest(ctx context.Context, base, head, title, body string) error
}
