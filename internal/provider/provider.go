// Package provider implements the model capability boundary: request and
// response types for tool-calling chat completions, and concrete API clients.
package provider

import (
	"context"
)

// Stop reasons reported in ChatResponse.StopReason.
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// LLMProvider is the interface for LLM API clients.
type LLMProvider interface {
	// Chat sends a completion request and returns the response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	// DefaultModel returns the configured default model.
	DefaultModel() string
}

// ChatRequest contains the parameters for a chat completion request.
type ChatRequest struct {
	System    string
	Messages  []Message
	Tools     []ToolDefinition
	Model     string
	MaxTokens int
}

// ChatResponse contains the parsed response from a chat completion request.
// Texts holds the text segments in order; ToolCalls the requested tool
// invocations, if any.
type ChatResponse struct {
	Texts      []string
	ToolCalls  []ToolCall
	StopReason string
	Usage      Usage
}

// Message represents one conversation turn. An assistant turn may carry
// tool calls; the following user turn carries the matching tool results.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolCall represents a tool call requested by the LLM.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult is the textual outcome of one tool call.
type ToolResult struct {
	CallID  string
	Content string
}

// ToolDefinition defines a tool that can be called by the LLM.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Usage contains token usage information.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
