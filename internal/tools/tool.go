// Package tools provides the tool framework and implementations for the agent.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/smartworkx/minion/internal/provider"
)

// MaxOutputChars caps every tool result before it reaches the model.
const MaxOutputChars = 10000

// Tool is the interface that all agent tools must implement.
type Tool interface {
	// Name returns the tool identifier used in tool calls.
	Name() string
	// Description returns a human-readable description for the LLM.
	Description() string
	// Parameters returns the JSON Schema for tool parameters.
	Parameters() map[string]any
	// Execute runs the tool with the given parameters.
	// Returns result string and error. On error, return user-friendly message.
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// Registry manages tool registration and execution. Execute never returns
// an error: unknown tools, tool errors, and panics all come back to the
// model as text so a bad call cannot kill a run.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns tool definitions in the provider's tool shape.
func (r *Registry) Definitions() []provider.ToolDefinition {
	result := make([]provider.ToolDefinition, 0, len(r.tools))
	for _, name := range r.Names() {
		tool := r.tools[name]
		result = append(result, provider.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.Parameters(),
		})
	}
	return result
}

// Execute runs a tool by name and always returns a textual result. The
// result is capped at MaxOutputChars with an explicit truncation marker.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (result string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Tool panicked", "tool", name, "panic", rec)
			result = fmt.Sprintf("Error executing tool '%s': %v", name, rec)
		}
		result = Truncate(result)
	}()

	tool, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool '%s'", name)
	}
	out, err := tool.Execute(ctx, params)
	if err != nil {
		slog.Warn("Tool returned error", "tool", name, "error", err)
		return fmt.Sprintf("Error executing tool '%s': %v", name, err)
	}
	return out
}

// Truncate caps s at MaxOutputChars, noting the original length.
func Truncate(s string) string {
	if len(s) <= MaxOutputChars {
		return s
	}
	return fmt.Sprintf("%s... (truncated, %d chars total)", s[:MaxOutputChars], len(s))
}

// GetString extracts a string parameter with a default value.
func GetString(params map[string]any, key string, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

// GetInt extracts an int parameter with a default value.
func GetInt(params map[string]any, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return defaultVal
}

// GetBool extracts a bool parameter with a default value.
func GetBool(params map[string]any, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}
