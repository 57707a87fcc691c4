package source

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/smartworkx/minion/internal/events"
)

type echoHandler struct{}

func (echoHandler) EventTypes() []string { return []string{"chat.message"} }

func (echoHandler) Handle(ctx context.Context, event *events.Event) (string, error) {
	content, _ := event.Payload["content"].(string)
	return "echo: " + content, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	values [][]byte
}

func (p *capturePublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.values = append(p.values, value)
	return nil
}

func (p *capturePublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.values)
}

func startSource(t *testing.T, consumer *ChannelConsumer, pub *capturePublisher) *ChatSource {
	t.Helper()
	dispatcher := events.NewDispatcher()
	dispatcher.Register(echoHandler{})
	src := NewChatSource(consumer, pub, "minion", "venus")
	go func() {
		_ = src.Start(context.Background(), dispatcher)
	}()
	t.Cleanup(src.Stop)
	return src
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestChatSourceRoundTrip(t *testing.T) {
	consumer := NewChannelConsumer()
	pub := &capturePublisher{}
	startSource(t, consumer, pub)

	in, _ := json.Marshal(chatPayload{Content: "hello", Sender: "alice"})
	consumer.Inject(Message{Topic: "minion.venus.inbox", Value: in})

	waitFor(t, func() bool { return pub.published() == 1 })

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.topics[0] != "minion.venus.outbox" {
		t.Errorf("topic = %q", pub.topics[0])
	}
	var out chatPayload
	if err := json.Unmarshal(pub.values[0], &out); err != nil {
		t.Fatal(err)
	}
	if out.Content != "echo: hello" || out.Sender != "venus" {
		t.Errorf("payload = %+v", out)
	}
}

func TestChatSourceSkipsMalformedAndOwnMessages(t *testing.T) {
	consumer := NewChannelConsumer()
	pub := &capturePublisher{}
	startSource(t, consumer, pub)

	consumer.Inject(Message{Value: []byte("not json")})
	own, _ := json.Marshal(chatPayload{Content: "echo: x", Sender: "venus"})
	consumer.Inject(Message{Value: own})
	empty, _ := json.Marshal(chatPayload{Sender: "alice"})
	consumer.Inject(Message{Value: empty})

	// A valid message afterwards still gets through.
	ok, _ := json.Marshal(chatPayload{Content: "ping", Sender: "alice"})
	consumer.Inject(Message{Value: ok})

	waitFor(t, func() bool { return pub.published() == 1 })
	var out chatPayload
	pub.mu.Lock()
	_ = json.Unmarshal(pub.values[0], &out)
	pub.mu.Unlock()
	if out.Content != "echo: ping" {
		t.Errorf("payload = %+v", out)
	}
}

func TestTopicNames(t *testing.T) {
	if got := InboxTopic("minion", "venus"); got != "minion.venus.inbox" {
		t.Errorf("inbox = %q", got)
	}
	if got := OutboxTopic("minion", "venus"); got != "minion.venus.outbox" {
		t.Errorf("outbox = %q", got)
	}
}
