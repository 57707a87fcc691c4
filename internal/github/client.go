package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"
)

// ptr is a helper to create a pointer to a value
func ptr[T any](v T) *T {
	return &v
}

// Client implements Host against the GitHub API.
type Client struct {
	gh    *github.Client
	owner string
	repo  string
}

// NewClient creates a GitHub API client for "owner/repo".
func NewClient(token, ownerRepo string) (*Client, error) {
	owner, repo, ok := strings.Cut(ownerRepo, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repo %q, want owner/repo", ownerRepo)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &Client{
		gh:    github.NewClient(tc),
		owner: owner,
		repo:  repo,
	}, nil
}

// ListOpenIssues returns open issues carrying the given label.
func (c *Client) ListOpenIssues(ctx context.Context, label string) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{label},
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var issues []Issue
	for {
		page, resp, err := c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}
		for _, is := range page {
			if is.IsPullRequest() {
				continue
			}
			labels := make([]string, 0, len(is.Labels))
			for _, l := range is.Labels {
				labels = append(labels, l.GetName())
			}
			issues = append(issues, Issue{
				Number: is.GetNumber(),
				Title:  is.GetTitle(),
				Body:   is.GetBody(),
				Labels: labels,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return issues, nil
}

// GetIssueComments returns all comments on an issue, oldest first.
func (c *Client) GetIssueComments(ctx context.Context, number int) ([]Comment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var comments []Comment
	for {
		page, resp, err := c.gh.Issues.ListComments(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list comments: %w", err)
		}
		for _, cm := range page {
			comments = append(comments, Comment{
				Body:      cm.GetBody(),
				CreatedAt: cm.GetCreatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return comments, nil
}

// CreateComment posts a comment on an issue.
func (c *Client) CreateComment(ctx context.Context, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &github.IssueComment{
		Body: ptr(body),
	})
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ReplaceLabel removes one label and adds another.
func (c *Client) ReplaceLabel(ctx context.Context, number int, remove, add string) error {
	if _, err := c.gh.Issues.RemoveLabelForIssue(ctx, c.owner, c.repo, number, remove); err != nil {
		return fmt.Errorf("remove label %s: %w", remove, err)
	}
	if _, _, err := c.gh.Issues.AddLabelsToIssue(ctx, c.owner, c.repo, number, []string{add}); err != nil {
		return fmt.Errorf("add label %s: %w", add, err)
	}
	return nil
}

// CreatePullRequest opens a PR from head into base.
func (c *Client) CreatePullRequest(ctx context.Context, base, head, title, body string) error {
	_, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: ptr(title),
		Body:  ptr(body),
		Head:  ptr(head),
		Base:  ptr(base),
	})
	if err != nil {
		return fmt.Errorf("create pull request: %w", err)
	}
	return nil
}
