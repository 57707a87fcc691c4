// Package claim implements the advisory task-claim broadcast. Claims are
// retained-keyed records on a compacted topic so late joiners can observe
// who picked up a task; they are informational and never block anyone.
package claim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Publisher writes one keyed record to a topic. A nil value is a tombstone.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Broadcaster publishes claim and release records for tasks. With no
// publisher attached it runs in local-only mode: claims succeed silently.
type Broadcaster struct {
	agent       string
	topicPrefix string
	publisher   Publisher
}

// NewBroadcaster creates a broadcaster for the named agent. topicPrefix
// prefixes every claim topic (e.g. "minion").
func NewBroadcaster(agent, topicPrefix string) *Broadcaster {
	if topicPrefix == "" {
		topicPrefix = "minion"
	}
	return &Broadcaster{agent: agent, topicPrefix: topicPrefix}
}

// SetPublisher attaches the transport. Called once during startup wiring;
// a nil publisher keeps the broadcaster in local-only mode.
func (b *Broadcaster) SetPublisher(p Publisher) {
	b.publisher = p
}

// TryClaim broadcasts a claim for the task and reports success. It never
// inspects existing claims; duplicate suppression belongs to the ledger.
// Publish failures are logged and reported as false, but callers already
// holding the ledger row proceed regardless.
func (b *Broadcaster) TryClaim(ctx context.Context, taskID string) bool {
	if b.publisher == nil {
		return true
	}
	payload, err := json.Marshal(map[string]string{
		"agent":      b.agent,
		"claimed_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Error("Failed to marshal claim", "task_id", taskID, "error", err)
		return false
	}
	if err := b.publisher.Publish(ctx, b.topic(taskID), []byte(taskID), payload); err != nil {
		slog.Error("Failed to broadcast claim", "task_id", taskID, "error", err)
		return false
	}
	slog.Info("Broadcast claim", "task_id", taskID, "agent", b.agent)
	return true
}

// Release publishes a tombstone clearing the retained claim. Failures are
// logged and swallowed.
func (b *Broadcaster) Release(ctx context.Context, taskID string) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(ctx, b.topic(taskID), []byte(taskID), nil); err != nil {
		slog.Error("Failed to release claim", "task_id", taskID, "error", err)
		return
	}
	slog.Info("Released claim", "task_id", taskID, "agent", b.agent)
}

func (b *Broadcaster) topic(taskID string) string {
	return fmt.Sprintf("%s.tasks.%s.claimed", b.topicPrefix, taskID)
}
