package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is the sandboxed project directory all file and project
// tools operate in. Paths are resolved relative to Root and may not
// escape it.
type Workspace struct {
	Root string
}

func NewWorkspace(root string) *Workspace {
	absRoot, _ := filepath.Abs(root)
	return &Workspace{Root: absRoot}
}

// Resolve joins rel onto the workspace root and rejects escapes.
func (w *Workspace) Resolve(rel string) (string, error) {
	target := filepath.Join(w.Root, rel)
	r, err := filepath.Rel(w.Root, target)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unsafe path attempt: %s", rel)
	}
	return target, nil
}

func pathSchema(extra map[string]any, required ...string) map[string]any {
	props := map[string]any{
		"path": map[string]any{
			"type":        "string",
			"description": "Path relative to the project workspace",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// RegisterFilesystem registers the file tools against the workspace.
func RegisterFilesystem(r *Registry, ws *Workspace) {
	contentProp := map[string]any{
		"content": map[string]any{
			"type":        "string",
			"description": "The full content to place in the file",
		},
	}

	r.Register(&Descriptor{
		Name:        "read_file",
		Description: "Read the content of a file in the workspace.",
		Parameters:  pathSchema(nil, "path"),
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			target, err := ws.Resolve(stringParam(params, "path"))
			if err != nil {
				return "", nil, err
			}
			data, err := os.ReadFile(target)
			if err != nil {
				return "", nil, fmt.Errorf("failed to read file: %w", err)
			}
			return string(data), nil, nil
		},
	})

	r.Register(&Descriptor{
		Name:        "create_file",
		Description: "Create a new file with the given content. Fails if the file already exists.",
		Parameters:  pathSchema(contentProp, "path", "content"),
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			rel := stringParam(params, "path")
			target, err := ws.Resolve(rel)
			if err != nil {
				return "", nil, err
			}
			if _, err := os.Stat(target); err == nil {
				return "", nil, fmt.Errorf("file already exists: %s", rel)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return "", nil, fmt.Errorf("failed to create parent directory: %w", err)
			}
			if err := os.WriteFile(target, []byte(stringParam(params, "content")), 0644); err != nil {
				return "", nil, fmt.Errorf("failed to create file: %w", err)
			}
			return fmt.Sprintf("Created %s", rel), nil, nil
		},
	})

	r.Register(&Descriptor{
		Name:        "write_file",
		Description: "Write content to a file, overwriting it if it exists.",
		Parameters:  pathSchema(contentProp, "path", "content"),
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			rel := stringParam(params, "path")
			target, err := ws.Resolve(rel)
			if err != nil {
				return "", nil, err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return "", nil, fmt.Errorf("failed to create parent directory: %w", err)
			}
			if err := os.WriteFile(target, []byte(stringParam(params, "content")), 0644); err != nil {
				return "", nil, fmt.Errorf("failed to write file: %w", err)
			}
			return fmt.Sprintf("Successfully wrote to %s", rel), nil, nil
		},
	})

	r.Register(&Descriptor{
		Name:        "delete_file",
		Description: "Delete a file or empty directory from the workspace.",
		Parameters:  pathSchema(nil, "path"),
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			rel := stringParam(params, "path")
			target, err := ws.Resolve(rel)
			if err != nil {
				return "", nil, err
			}
			if err := os.Remove(target); err != nil {
				return "", nil, fmt.Errorf("failed to delete: %w", err)
			}
			return fmt.Sprintf("Successfully deleted %s", rel), nil, nil
		},
	})

	r.Register(&Descriptor{
		Name:        "list_directory",
		Description: "List the entries of a directory in the workspace.",
		Parameters:  pathSchema(nil, "path"),
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			target, err := ws.Resolve(stringParam(params, "path"))
			if err != nil {
				return "", nil, err
			}
			entries, err := os.ReadDir(target)
			if err != nil {
				return "", nil, fmt.Errorf("failed to list directory: %w", err)
			}
			var names []string
			var output strings.Builder
			for _, entry := range entries {
				typeStr := "file"
				if entry.IsDir() {
					typeStr = "dir"
				}
				fmt.Fprintf(&output, "[%s] %s\n", typeStr, entry.Name())
				names = append(names, entry.Name())
			}
			if output.Len() == 0 {
				return "Directory is empty", names, nil
			}
			return output.String(), names, nil
		},
	})

	r.Register(&Descriptor{
		Name:        "make_directory",
		Description: "Create a directory (and parents) in the workspace.",
		Parameters:  pathSchema(nil, "path"),
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			rel := stringParam(params, "path")
			target, err := ws.Resolve(rel)
			if err != nil {
				return "", nil, err
			}
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", nil, fmt.Errorf("failed to create directory: %w", err)
			}
			return fmt.Sprintf("Successfully created directory %s", rel), nil, nil
		},
	})
}
