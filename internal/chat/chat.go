// Package chat implements the conversational event handler.
package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/smartworkx/minion/internal/agent"
	"github.com/smartworkx/minion/internal/conversation"
	"github.com/smartworkx/minion/internal/events"
	"github.com/smartworkx/minion/internal/provider"
	"github.com/smartworkx/minion/internal/tools"
)

const systemPromptTemplate = `You are %s, a helpful autonomous assistant.
You can use the available tools to read and write files, run shell commands,
and operate on git repositories. Keep answers concise. If a request needs
tools, use them rather than guessing.`

// Handler answers chat.message events through the agent loop. All chat
// surfaces (HTTP, WebSocket, bus) share one conversation, so a user can
// switch surfaces mid-thread; a mutex serializes deliveries so interleaved
// messages cannot corrupt a tool round.
type Handler struct {
	mu   sync.Mutex
	loop *agent.Loop
	conv *conversation.Conversation
}

// New creates the chat handler.
func New(prov provider.LLMProvider, registry *tools.Registry, agentName, model string, maxHistory int) *Handler {
	return &Handler{
		loop: agent.NewLoop(agent.LoopOptions{
			Provider:     prov,
			Registry:     registry,
			SystemPrompt: fmt.Sprintf(systemPromptTemplate, agentName),
			Model:        model,
			MaxRounds:    agent.ChatMaxRounds,
		}),
		conv: conversation.New(maxHistory),
	}
}

// EventTypes implements events.Handler.
func (h *Handler) EventTypes() []string {
	return []string{"chat.message"}
}

// Handle appends the incoming message to the shared conversation and runs
// the loop to completion.
func (h *Handler) Handle(ctx context.Context, event *events.Event) (string, error) {
	content, _ := event.Payload["content"].(string)
	if content == "" {
		return "", nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.conv.AddUser(content)
	return h.loop.Run(ctx, h.conv)
}

// Reset clears the shared conversation.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conv.Clear()
}
