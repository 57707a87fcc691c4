package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxReadChars caps the content returned by file_read.
const MaxReadChars = 50000

// FileReadTool reads the contents of a file under the allowed roots.
type FileReadTool struct {
	allowedRoots []string
}

// NewFileReadTool creates a read tool restricted to the given roots.
func NewFileReadTool(allowedRoots []string) *FileReadTool {
	return &FileReadTool{allowedRoots: normalizeRoots(allowedRoots)}
}

func (t *FileReadTool) Name() string { return "file_read" }

func (t *FileReadTool) Description() string {
	return "Read the contents of a file at the specified path. Access is restricted to allowed directories."
}

func (t *FileReadTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The path to the file to read",
			},
		},
		"required": []string{"path"},
	}
}

func (t *FileReadTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	path := GetString(params, "path", "")
	if path == "" {
		return "Error: path is required", nil
	}

	path = expandPath(path)
	if !pathAllowed(t.allowedRoots, path) {
		return fmt.Sprintf("Error: path not allowed: %s", path), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Error: file not found: %s", path), nil
		}
		if os.IsPermission(err) {
			return fmt.Sprintf("Error: permission denied: %s", path), nil
		}
		return fmt.Sprintf("Error reading file: %v", err), nil
	}

	text := string(content)
	if len(text) > MaxReadChars {
		return fmt.Sprintf("%s... (truncated, %d chars total)", text[:MaxReadChars], len(text)), nil
	}
	return text, nil
}

// FileWriteTool writes content to a file under the allowed roots.
type FileWriteTool struct {
	allowedRoots []string
}

// NewFileWriteTool creates a write tool restricted to the given roots.
func NewFileWriteTool(allowedRoots []string) *FileWriteTool {
	return &FileWriteTool{allowedRoots: normalizeRoots(allowedRoots)}
}

func (t *FileWriteTool) Name() string { return "file_write" }

func (t *FileWriteTool) Description() string {
	return "Write content to a file at the specified path. Creates parent directories if needed. Writes are restricted to allowed directories."
}

func (t *FileWriteTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The path to the file to write",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The content to write to the file",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *FileWriteTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	path := GetString(params, "path", "")
	content := GetString(params, "content", "")

	if path == "" {
		return "Error: path is required", nil
	}

	path = expandPath(path)
	if !pathAllowed(t.allowedRoots, path) {
		return fmt.Sprintf("Error: path not allowed: %s", path), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Sprintf("Error creating directory: %v", err), nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		if os.IsPermission(err) {
			return fmt.Sprintf("Error: permission denied: %s", path), nil
		}
		return fmt.Sprintf("Error writing file: %v", err), nil
	}

	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
}

// expandPath turns path into a cleaned absolute path, expanding a leading ~.
// Symlinks are resolved when the target exists so a link cannot escape the
// allowed roots.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Clean(path)
}

func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		if root == "" {
			continue
		}
		out = append(out, expandPath(root))
	}
	return out
}

// pathAllowed reports whether path sits under any allowed root. An empty
// root list denies everything.
func pathAllowed(roots []string, path string) bool {
	for _, root := range roots {
		if isWithin(root, path) {
			return true
		}
	}
	return false
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
