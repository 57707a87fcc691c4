// Package conversation implements a bounded in-memory message buffer.
package conversation

import (
	"github.com/smartworkx/minion/internal/provider"
)

// Conversation holds an ordered message history with strict FIFO eviction.
// When the buffer exceeds maxHistory the oldest messages are dropped, even
// mid tool-call exchange. Not safe for concurrent use; callers serialize.
type Conversation struct {
	messages   []provider.Message
	maxHistory int
}

// New creates a conversation holding at most maxHistory messages.
func New(maxHistory int) *Conversation {
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &Conversation{maxHistory: maxHistory}
}

// AddUser appends a user message.
func (c *Conversation) AddUser(content string) {
	c.append(provider.Message{Role: "user", Content: content})
}

// AddAssistant appends an assistant message, including any tool calls the
// model requested.
func (c *Conversation) AddAssistant(content string, toolCalls []provider.ToolCall) {
	c.append(provider.Message{Role: "assistant", Content: content, ToolCalls: toolCalls})
}

// AddToolResults appends all results of one round as a single message.
func (c *Conversation) AddToolResults(results []provider.ToolResult) {
	c.append(provider.Message{Role: "user", ToolResults: results})
}

// Messages returns a copy of the history; mutating it does not affect the
// conversation.
func (c *Conversation) Messages() []provider.Message {
	out := make([]provider.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of buffered messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Clear drops the entire history.
func (c *Conversation) Clear() {
	c.messages = nil
}

func (c *Conversation) append(msg provider.Message) {
	c.messages = append(c.messages, msg)
	if excess := len(c.messages) - c.maxHistory; excess > 0 {
		c.messages = c.messages[excess:]
	}
}
