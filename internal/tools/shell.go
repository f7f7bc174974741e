package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RegisterShell registers the run_command tool. Commands execute with
// the workspace root as their working directory.
func RegisterShell(r *Registry, ws *Workspace) {
	r.Register(&Descriptor{
		Name:        "run_command",
		Description: "Execute a shell command inside the project workspace. Use with caution.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "The shell command to execute",
				},
			},
			"required": []string{"command"},
		},
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			command := stringParam(params, "command")
			if command == "" {
				return "", nil, fmt.Errorf("empty command")
			}

			cmd := exec.CommandContext(ctx, "bash", "-c", command)
			cmd.Dir = ws.Root

			output, err := cmd.CombinedOutput()
			result := strings.TrimSpace(string(output))
			if result == "" {
				result = "(no output)"
			}

			if err != nil {
				return result, nil, fmt.Errorf("command failed: %v", err)
			}
			return result, nil, nil
		},
	})
}
