// Package agent implements the bounded tool-calling loop that drives a
// conversation against the model until it produces a final answer.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smartworkx/minion/internal/conversation"
	"github.com/smartworkx/minion/internal/provider"
	"github.com/smartworkx/minion/internal/tools"
)

// Round ceilings per call site.
const (
	ChatMaxRounds      = 20
	PlanMaxRounds      = 30
	ImplementMaxRounds = 50
)

// DegradedCompletion is returned when the round budget runs out before the
// model stops calling tools.
const DegradedCompletion = "I've reached the maximum number of tool use rounds. Here's where I got to."

// LoopOptions contains configuration for an agent loop.
type LoopOptions struct {
	Provider     provider.LLMProvider
	Registry     *tools.Registry
	SystemPrompt string
	Model        string
	MaxTokens    int
	MaxRounds    int
}

// Loop runs bounded tool-use rounds over a conversation.
type Loop struct {
	provider     provider.LLMProvider
	registry     *tools.Registry
	systemPrompt string
	model        string
	maxTokens    int
	maxRounds    int
}

// NewLoop creates an agent loop.
func NewLoop(opts LoopOptions) *Loop {
	maxRounds := opts.MaxRounds
	if maxRounds == 0 {
		maxRounds = ChatMaxRounds
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &Loop{
		provider:     opts.Provider,
		registry:     opts.Registry,
		systemPrompt: opts.SystemPrompt,
		model:        opts.Model,
		maxTokens:    maxTokens,
		maxRounds:    maxRounds,
	}
}

// Run drives the conversation until the model stops requesting tools, the
// round budget runs out, or the model errors. The caller seeds conv with
// the user input beforehand. Model errors propagate; tool failures never
// do, they come back to the model as text.
func (l *Loop) Run(ctx context.Context, conv *conversation.Conversation) (string, error) {
	var definitions []provider.ToolDefinition
	if l.registry != nil {
		definitions = l.registry.Definitions()
	}

	for round := 0; round < l.maxRounds; round++ {
		resp, err := l.provider.Chat(ctx, &provider.ChatRequest{
			System:    l.systemPrompt,
			Messages:  conv.Messages(),
			Tools:     definitions,
			Model:     l.model,
			MaxTokens: l.maxTokens,
		})
		if err != nil {
			return "", err
		}

		text := strings.Join(resp.Texts, "\n")
		conv.AddAssistant(text, resp.ToolCalls)

		if resp.StopReason != provider.StopToolUse || len(resp.ToolCalls) == 0 {
			if text == "" {
				return "(no response)", nil
			}
			return text, nil
		}

		slog.Debug("Executing tool round", "round", round, "calls", len(resp.ToolCalls))
		results := make([]provider.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			// Without a registry every requested tool is unknown.
			output := fmt.Sprintf("Error: unknown tool '%s'", call.Name)
			if l.registry != nil {
				output = l.registry.Execute(ctx, call.Name, call.Arguments)
			}
			results = append(results, provider.ToolResult{CallID: call.ID, Content: output})
		}
		// All results of the round land in one message so the transcript
		// stays aligned with the calls that produced them.
		conv.AddToolResults(results)
	}

	slog.Warn("Agent loop exhausted round budget", "max_rounds", l.maxRounds)
	return DegradedCompletion, nil
}
