package github

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smartworkx/minion/internal/events"
	"github.com/smartworkx/minion/internal/ledger"
)

// Event types emitted by the poller.
const (
	EventPlan      = "github.plan"
	EventImplement = "github.implement"
)

// Task id prefixes. One ledger row per issue and workflow stage.
const (
	planTaskPrefix      = "github-plan"
	implementTaskPrefix = "github-impl"
)

// PlanTaskID returns the ledger id for planning an issue.
func PlanTaskID(number int) string {
	return fmt.Sprintf("%s-%d", planTaskPrefix, number)
}

// ImplementTaskID returns the ledger id for implementing an issue.
func ImplementTaskID(number int) string {
	return fmt.Sprintf("%s-%d", implementTaskPrefix, number)
}

// Labels maps workflow stages to tracker label names.
type Labels struct {
	Plan         string
	Planned      string
	Implement    string
	Implementing string
	Done         string
}

// DefaultLabels returns the conventional label set.
func DefaultLabels() Labels {
	return Labels{
		Plan:         "minion:plan",
		Planned:      "minion:planned",
		Implement:    "minion:implement",
		Implementing: "minion:implementing",
		Done:         "minion:done",
	}
}

// Source polls the tracker for labelled issues and dispatches one event per
// issue not yet present in the ledger. The ledger is the only dedup gate:
// restarting mid-task will not re-dispatch a known issue, and nothing is
// re-dispatched just because a label lingers.
type Source struct {
	host     Host
	store    *ledger.Ledger
	labels   Labels
	interval time.Duration
	stop     chan struct{}
}

// NewSource creates a poller. interval is the sleep between poll cycles.
func NewSource(host Host, store *ledger.Ledger, labels Labels, interval time.Duration) *Source {
	if interval == 0 {
		interval = 60 * time.Second
	}
	return &Source{
		host:     host,
		store:    store,
		labels:   labels,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start polls until the context is cancelled or Stop is called.
func (s *Source) Start(ctx context.Context, dispatcher *events.Dispatcher) error {
	slog.Info("GitHub source started", "interval", s.interval)
	for {
		s.poll(ctx, dispatcher)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case <-time.After(s.interval):
		}
	}
}

// Stop ends the polling loop at the next sleep point.
func (s *Source) Stop() {
	close(s.stop)
}

func (s *Source) poll(ctx context.Context, dispatcher *events.Dispatcher) {
	stages := []struct {
		label      string
		eventType  string
		taskPrefix string
	}{
		{s.labels.Plan, EventPlan, planTaskPrefix},
		{s.labels.Implement, EventImplement, implementTaskPrefix},
	}

	for _, stage := range stages {
		issues, err := s.host.ListOpenIssues(ctx, stage.label)
		if err != nil {
			slog.Error("GitHub poll failed", "label", stage.label, "error", err)
			continue
		}
		for _, issue := range issues {
			taskID := fmt.Sprintf("%s-%d", stage.taskPrefix, issue.Number)
			known, err := s.store.IsKnown(taskID)
			if err != nil {
				slog.Error("Ledger lookup failed", "task_id", taskID, "error", err)
				continue
			}
			if known {
				continue
			}

			slog.Info("Dispatching issue", "number", issue.Number, "title", issue.Title, "type", stage.eventType)
			event := events.New(stage.eventType, "github", map[string]any{
				"number": issue.Number,
				"title":  issue.Title,
				"body":   issue.Body,
			})
			if _, err := dispatcher.Dispatch(ctx, event); err != nil {
				slog.Error("Issue handling failed", "number", issue.Number, "error", err)
			}
		}
	}
}
