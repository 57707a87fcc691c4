package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/smartworkx/minion/internal/claim"
	"github.com/smartworkx/minion/internal/events"
)

// chatPayload is the wire shape on the inbox and outbox topics.
type chatPayload struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

// InboxTopic returns the agent's inbound chat topic.
func InboxTopic(prefix, agent string) string {
	return fmt.Sprintf("%s.%s.inbox", prefix, agent)
}

// OutboxTopic returns the agent's outbound chat topic.
func OutboxTopic(prefix, agent string) string {
	return fmt.Sprintf("%s.%s.outbox", prefix, agent)
}

// ChatSource bridges the bus to the dispatcher: inbox records become
// chat.message events, handler results go back out on the outbox.
type ChatSource struct {
	consumer  Consumer
	publisher claim.Publisher
	agent     string
	outTopic  string
	stop      chan struct{}
}

// NewChatSource creates a chat source. publisher may be nil, in which case
// responses are dropped after handling (useful for one-way setups).
func NewChatSource(consumer Consumer, publisher claim.Publisher, prefix, agent string) *ChatSource {
	return &ChatSource{
		consumer:  consumer,
		publisher: publisher,
		agent:     agent,
		outTopic:  OutboxTopic(prefix, agent),
		stop:      make(chan struct{}),
	}
}

// Start consumes inbox messages until the context is cancelled or Stop is
// called. Malformed payloads are logged and skipped.
func (s *ChatSource) Start(ctx context.Context, dispatcher *events.Dispatcher) error {
	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	slog.Info("Chat source started", "agent", s.agent)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case msg, ok := <-s.consumer.Messages():
			if !ok {
				return nil
			}
			s.handle(ctx, dispatcher, msg)
		}
	}
}

// Stop ends the consume loop.
func (s *ChatSource) Stop() {
	close(s.stop)
	_ = s.consumer.Close()
}

func (s *ChatSource) handle(ctx context.Context, dispatcher *events.Dispatcher, msg Message) {
	var payload chatPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		slog.Warn("Dropping malformed chat message", "topic", msg.Topic, "error", err)
		return
	}
	if payload.Content == "" {
		return
	}
	// Ignore our own outbox echoes if topics are fanned in together.
	if payload.Sender == s.agent {
		return
	}

	result, err := dispatcher.Dispatch(ctx, events.New("chat.message", "bus", map[string]any{
		"content": payload.Content,
		"sender":  payload.Sender,
	}))
	if err != nil {
		slog.Error("Chat handling failed", "error", err)
		return
	}
	if result == "" || s.publisher == nil {
		return
	}

	out, err := json.Marshal(chatPayload{Content: result, Sender: s.agent})
	if err != nil {
		slog.Error("Failed to marshal response", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, s.outTopic, []byte(s.agent), out); err != nil {
		slog.Error("Failed to publish response", "topic", s.outTopic, "error", err)
	}
}
