package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type stubTool struct {
	name   string
	result string
	err    error
	panics bool
}

func (s *stubTool) Name() string                { return s.name }
func (s *stubTool) Description() string         { return "stub" }
func (s *stubTool) Parameters() map[string]any  { return map[string]any{"type": "object"} }
func (s *stubTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	result := r.Execute(context.Background(), "nope", nil)
	if result != "Error: unknown tool 'nope'" {
		t.Errorf("result = %q", result)
	}
}

func TestRegistryExecuteConvertsErrorToText(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "bad", err: errors.New("exploded")})
	result := r.Execute(context.Background(), "bad", nil)
	if !strings.Contains(result, "exploded") || !strings.HasPrefix(result, "Error executing tool 'bad'") {
		t.Errorf("result = %q", result)
	}
}

func TestRegistryExecuteRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "panicky", panics: true})
	result := r.Execute(context.Background(), "panicky", nil)
	if !strings.Contains(result, "boom") {
		t.Errorf("result = %q", result)
	}
}

func TestRegistryExecuteTruncatesLongOutput(t *testing.T) {
	r := NewRegistry()
	long := strings.Repeat("x", MaxOutputChars+500)
	r.Register(&stubTool{name: "chatty", result: long})
	result := r.Execute(context.Background(), "chatty", nil)
	if len(result) >= len(long) {
		t.Fatalf("output not truncated: %d chars", len(result))
	}
	if !strings.Contains(result, "(truncated, 10500 chars total)") {
		t.Errorf("missing truncation marker: %q", result[len(result)-60:])
	}
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "shell"})
	r.Register(&stubTool{name: "file_read"})
	defs := r.Definitions()
	if len(defs) != 2 || defs[0].Name != "file_read" || defs[1].Name != "shell" {
		t.Errorf("definitions = %+v", defs)
	}
}

func TestFileReadWriteRoundTrip(t *testing.T) {
	root := t.TempDir()
	read := NewFileReadTool([]string{root})
	write := NewFileWriteTool([]string{root})

	path := filepath.Join(root, "sub", "note.txt")
	result, err := write.Execute(context.Background(), map[string]any{
		"path": path, "content": "hello",
	})
	if err != nil {
		t.Fatalf("write error = %v", err)
	}
	if !strings.HasPrefix(result, "Successfully wrote") {
		t.Errorf("write result = %q", result)
	}

	result, err = read.Execute(context.Background(), map[string]any{"path": path})
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if result != "hello" {
		t.Errorf("read result = %q", result)
	}
}

func TestFileToolsRejectTraversal(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0644); err != nil {
		t.Fatal(err)
	}

	read := NewFileReadTool([]string{root})
	sneaky := filepath.Join(root, "..", filepath.Base(filepath.Dir(outside)), "secret.txt")
	result, err := read.Execute(context.Background(), map[string]any{"path": sneaky})
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if !strings.HasPrefix(result, "Error: path not allowed") {
		t.Errorf("traversal result = %q", result)
	}

	write := NewFileWriteTool([]string{root})
	result, err = write.Execute(context.Background(), map[string]any{
		"path": "/etc/passwd", "content": "x",
	})
	if err != nil {
		t.Fatalf("write error = %v", err)
	}
	if !strings.HasPrefix(result, "Error: path not allowed") {
		t.Errorf("write outside result = %q", result)
	}
}

func TestFileReadNoRootsDeniesEverything(t *testing.T) {
	read := NewFileReadTool(nil)
	result, _ := read.Execute(context.Background(), map[string]any{"path": "/tmp/x"})
	if !strings.HasPrefix(result, "Error: path not allowed") {
		t.Errorf("result = %q", result)
	}
}

func TestShellToolRunsCommand(t *testing.T) {
	tool := NewShellTool(10*time.Second, t.TempDir())
	result, err := tool.Execute(context.Background(), map[string]any{"command": "echo hi"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(result) != "hi" {
		t.Errorf("result = %q", result)
	}
}

func TestShellToolReportsExitCode(t *testing.T) {
	tool := NewShellTool(10*time.Second, "")
	result, err := tool.Execute(context.Background(), map[string]any{"command": "exit 3"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(result, "Exit code: 3") {
		t.Errorf("result = %q", result)
	}
}

func TestShellToolTimeout(t *testing.T) {
	tool := NewShellTool(1*time.Second, "")
	start := time.Now()
	result, err := tool.Execute(context.Background(), map[string]any{"command": "sleep 10"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("command not killed at timeout, took %v", elapsed)
	}
	if !strings.Contains(result, "timed out after 1s") {
		t.Errorf("result = %q", result)
	}
}

func TestGitToolBlocksDangerousCommands(t *testing.T) {
	repo := t.TempDir()
	tool := NewGitTool([]string{repo}, 10*time.Second)

	cases := []struct {
		args string
		want string
	}{
		{"push --force origin main", "push --force"},
		{"push -f", "push -f"},
		{"reset --hard HEAD~3", "reset --hard"},
		{"clean -fd", "clean -f"},
		{"branch -D feature", "branch -D"},
	}
	for _, tc := range cases {
		result, err := tool.Execute(context.Background(), map[string]any{
			"repo": repo, "args": tc.args,
		})
		if err != nil {
			t.Fatalf("Execute(%q) error = %v", tc.args, err)
		}
		want := "Error: dangerous git command blocked: '" + tc.want + "'"
		if result != want {
			t.Errorf("args %q: result = %q, want %q", tc.args, result, want)
		}
	}
}

func TestGitToolRejectsUnlistedRepo(t *testing.T) {
	tool := NewGitTool([]string{t.TempDir()}, 10*time.Second)
	result, err := tool.Execute(context.Background(), map[string]any{
		"repo": t.TempDir(), "args": "status",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(result, "Error: repository not allowed") {
		t.Errorf("result = %q", result)
	}
}

func TestGetParamHelpers(t *testing.T) {
	params := map[string]any{"s": "v", "n": float64(7), "b": true}
	if got := GetString(params, "s", "d"); got != "v" {
		t.Errorf("GetString = %q", got)
	}
	if got := GetString(params, "missing", "d"); got != "d" {
		t.Errorf("GetString default = %q", got)
	}
	if got := GetInt(params, "n", 0); got != 7 {
		t.Errorf("GetInt = %d", got)
	}
	if got := GetBool(params, "b", false); !got {
		t.Error("GetBool = false")
	}
}
