package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/smartworkx/minion/internal/conversation"
	"github.com/smartworkx/minion/internal/provider"
	"github.com/smartworkx/minion/internal/tools"
)

// scriptedProvider replays canned responses in order.
type scriptedProvider struct {
	responses []*provider.ChatResponse
	err       error
	requests  []*provider.ChatRequest
}

func (s *scriptedProvider) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return &provider.ChatResponse{Texts: []string{"done"}, StopReason: provider.StopEndTurn}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *scriptedProvider) DefaultModel() string { return "test-model" }

type echoTool struct{ calls int }

func (e *echoTool) Name() string               { return "echo" }
func (e *echoTool) Description() string        { return "echoes" }
func (e *echoTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (e *echoTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	e.calls++
	return tools.GetString(params, "text", ""), nil
}

func newTestLoop(p provider.LLMProvider, r *tools.Registry, maxRounds int) *Loop {
	return NewLoop(LoopOptions{
		Provider:  p,
		Registry:  r,
		MaxRounds: maxRounds,
	})
}

func TestRunReturnsTextOnEndTurn(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{
		{Texts: []string{"first", "second"}, StopReason: provider.StopEndTurn},
	}}
	conv := conversation.New(50)
	conv.AddUser("hi")

	result, err := newTestLoop(p, tools.NewRegistry(), 5).Run(context.Background(), conv)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result != "first\nsecond" {
		t.Errorf("result = %q", result)
	}
}

func TestRunEmptyResponsePlaceholder(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{
		{StopReason: provider.StopEndTurn},
	}}
	conv := conversation.New(50)
	conv.AddUser("hi")

	result, err := newTestLoop(p, tools.NewRegistry(), 5).Run(context.Background(), conv)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result != "(no response)" {
		t.Errorf("result = %q", result)
	}
}

func TestRunExecutesToolsThenFinishes(t *testing.T) {
	registry := tools.NewRegistry()
	echo := &echoTool{}
	registry.Register(echo)

	p := &scriptedProvider{responses: []*provider.ChatResponse{
		{
			StopReason: provider.StopToolUse,
			ToolCalls: []provider.ToolCall{
				{ID: "tu_1", Name: "echo", Arguments: map[string]any{"text": "a"}},
				{ID: "tu_2", Name: "echo", Arguments: map[string]any{"text": "b"}},
			},
		},
		{Texts: []string{"finished"}, StopReason: provider.StopEndTurn},
	}}
	conv := conversation.New(50)
	conv.AddUser("run the echoes")

	result, err := newTestLoop(p, registry, 5).Run(context.Background(), conv)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result != "finished" {
		t.Errorf("result = %q", result)
	}
	if echo.calls != 2 {
		t.Errorf("tool calls = %d, want 2", echo.calls)
	}

	// Both results of the round form one message.
	second := p.requests[1]
	var resultMsgs int
	for _, m := range second.Messages {
		if len(m.ToolResults) > 0 {
			resultMsgs++
			if len(m.ToolResults) != 2 {
				t.Errorf("tool results in message = %d, want 2", len(m.ToolResults))
			}
		}
	}
	if resultMsgs != 1 {
		t.Errorf("tool result messages = %d, want 1", resultMsgs)
	}
}

func TestRunUnknownToolFeedsErrorText(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{
		{
			StopReason: provider.StopToolUse,
			ToolCalls:  []provider.ToolCall{{ID: "tu_1", Name: "missing"}},
		},
		{Texts: []string{"recovered"}, StopReason: provider.StopEndTurn},
	}}
	conv := conversation.New(50)
	conv.AddUser("hi")

	result, err := newTestLoop(p, tools.NewRegistry(), 5).Run(context.Background(), conv)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result != "recovered" {
		t.Errorf("result = %q", result)
	}
	second := p.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if len(last.ToolResults) != 1 || !strings.Contains(last.ToolResults[0].Content, "unknown tool 'missing'") {
		t.Errorf("tool result = %+v", last.ToolResults)
	}
}

func TestRunNilRegistryTreatsToolsAsUnknown(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.ChatResponse{
		{
			StopReason: provider.StopToolUse,
			ToolCalls:  []provider.ToolCall{{ID: "tu_1", Name: "echo"}},
		},
		{Texts: []string{"recovered"}, StopReason: provider.StopEndTurn},
	}}
	conv := conversation.New(50)
	conv.AddUser("hi")

	result, err := newTestLoop(p, nil, 5).Run(context.Background(), conv)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result != "recovered" {
		t.Errorf("result = %q", result)
	}
	second := p.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if len(last.ToolResults) != 1 || !strings.Contains(last.ToolResults[0].Content, "unknown tool 'echo'") {
		t.Errorf("tool result = %+v", last.ToolResults)
	}
}

func TestRunExhaustsRoundBudget(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&echoTool{})

	// Always request another tool round.
	toolUse := &provider.ChatResponse{
		StopReason: provider.StopToolUse,
		ToolCalls:  []provider.ToolCall{{ID: "tu", Name: "echo", Arguments: map[string]any{"text": "x"}}},
	}
	p := &scriptedProvider{responses: []*provider.ChatResponse{toolUse, toolUse, toolUse, toolUse, toolUse}}
	conv := conversation.New(50)
	conv.AddUser("loop forever")

	result, err := newTestLoop(p, registry, 3).Run(context.Background(), conv)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result != DegradedCompletion {
		t.Errorf("result = %q, want degraded completion", result)
	}
	if len(p.requests) != 3 {
		t.Errorf("model calls = %d, want 3", len(p.requests))
	}
}

func TestRunPropagatesModelError(t *testing.T) {
	p := &scriptedProvider{err: errors.New("rate limited")}
	conv := conversation.New(50)
	conv.AddUser("hi")

	_, err := newTestLoop(p, tools.NewRegistry(), 5).Run(context.Background(), conv)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("err = %v, want propagated model error", err)
	}
}
