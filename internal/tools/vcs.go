package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	result := strings.TrimSpace(string(output))
	if err != nil {
		return result, fmt.Errorf("git %s failed: %v", args[0], err)
	}
	if result == "" {
		result = "(no output)"
	}
	return result, nil
}

// RegisterVCS registers read-only git tools over the workspace.
func RegisterVCS(r *Registry, ws *Workspace) {
	r.Register(&Descriptor{
		Name:        "git_status",
		Description: "Show the working tree status of the workspace repository.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			out, err := runGit(ctx, ws.Root, "status", "--porcelain", "-b")
			return out, nil, err
		},
	})

	r.Register(&Descriptor{
		Name:        "git_diff",
		Description: "Show unstaged changes in the workspace repository, optionally limited to one path.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Optional path to limit the diff to",
				},
			},
		},
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			args := []string{"diff"}
			if path := stringParam(params, "path"); path != "" {
				if _, err := ws.Resolve(path); err != nil {
					return "", nil, err
				}
				args = append(args, "--", path)
			}
			out, err := runGit(ctx, ws.Root, args...)
			return out, nil, err
		},
	})

	r.Register(&Descriptor{
		Name:        "git_log",
		Description: "Show recent commits in the workspace repository.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of commits to show (default 10)",
				},
			},
		},
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			limit := intParam(params, "limit")
			if limit <= 0 {
				limit = 10
			}
			out, err := runGit(ctx, ws.Root, "log", "--oneline", "-n", strconv.Itoa(limit))
			return out, nil, err
		},
	})
}
