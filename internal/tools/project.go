package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const defaultGitignore = "node_modules/\ndist/\n.env\n"

// RegisterProject registers the project manifest tools: init_project
// scaffolds a minimal project layout, update_package_json merges fields
// into the workspace's package.json.
func RegisterProject(r *Registry, ws *Workspace) {
	r.Register(&Descriptor{
		Name:        "init_project",
		Description: "Scaffold a minimal project in the workspace: package.json, src/ and README.md.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "The project name",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Optional project description",
				},
			},
			"required": []string{"name"},
		},
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			name := stringParam(params, "name")
			manifestPath := filepath.Join(ws.Root, "package.json")
			if _, err := os.Stat(manifestPath); err == nil {
				return "", nil, fmt.Errorf("project already initialized: package.json exists")
			}

			manifest := map[string]any{
				"name":        name,
				"version":     "0.1.0",
				"description": stringParam(params, "description"),
				"scripts":     map[string]any{},
			}
			data, err := json.MarshalIndent(manifest, "", "  ")
			if err != nil {
				return "", nil, err
			}
			if err := os.WriteFile(manifestPath, append(data, '\n'), 0644); err != nil {
				return "", nil, fmt.Errorf("failed to write package.json: %w", err)
			}
			if err := os.MkdirAll(filepath.Join(ws.Root, "src"), 0755); err != nil {
				return "", nil, fmt.Errorf("failed to create src: %w", err)
			}
			readme := fmt.Sprintf("# %s\n", name)
			if err := os.WriteFile(filepath.Join(ws.Root, "README.md"), []byte(readme), 0644); err != nil {
				return "", nil, fmt.Errorf("failed to write README.md: %w", err)
			}
			if err := os.WriteFile(filepath.Join(ws.Root, ".gitignore"), []byte(defaultGitignore), 0644); err != nil {
				return "", nil, fmt.Errorf("failed to write .gitignore: %w", err)
			}
			return fmt.Sprintf("Initialized project %s (package.json, src/, README.md)", name), nil, nil
		},
	})

	r.Register(&Descriptor{
		Name:        "update_package_json",
		Description: "Merge top-level fields into the workspace's package.json. Nested objects like scripts and dependencies are merged key by key.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"fields": map[string]any{
					"type":        "object",
					"description": "The fields to set or merge into package.json",
				},
			},
			"required": []string{"fields"},
		},
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			fields, _ := params["fields"].(map[string]any)
			if len(fields) == 0 {
				return "", nil, fmt.Errorf("fields must be a non-empty object")
			}

			manifestPath := filepath.Join(ws.Root, "package.json")
			manifest := map[string]any{}
			if data, err := os.ReadFile(manifestPath); err == nil {
				if err := json.Unmarshal(data, &manifest); err != nil {
					return "", nil, fmt.Errorf("existing package.json is not valid JSON: %w", err)
				}
			}

			for key, val := range fields {
				incoming, inOK := val.(map[string]any)
				existing, exOK := manifest[key].(map[string]any)
				if inOK && exOK {
					for k, v := range incoming {
						existing[k] = v
					}
					continue
				}
				manifest[key] = val
			}

			data, err := json.MarshalIndent(manifest, "", "  ")
			if err != nil {
				return "", nil, err
			}
			if err := os.WriteFile(manifestPath, append(data, '\n'), 0644); err != nil {
				return "", nil, fmt.Errorf("failed to write package.json: %w", err)
			}
			return fmt.Sprintf("Updated package.json (%d field(s))", len(fields)), manifest, nil
		},
	})
}
