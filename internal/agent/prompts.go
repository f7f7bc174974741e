package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const defaultPlannerPrompt = `You are an autonomous engineering agent operating on a sandboxed project workspace.

When the user's goal requires actions, call propose_plan with an ordered list of steps, each naming one tool and its parameters. Propose only steps you can justify from the goal and prior results. When the goal is satisfied, or no action is needed, answer in plain text instead of proposing a plan.

Rules:
- Use only the tools you are offered; never invent tool names.
- Keep plans short; prefer several small rounds over one speculative plan.
- Destructive steps (writes, deletions, shell commands) may require human approval; describe them precisely.`

// PromptSet assembles the planner's system prompt from ordered markdown
// files in a directory, falling back to a built-in prompt when the
// directory is absent.
type PromptSet struct {
	Directory string
}

func NewPromptSet(dir string) *PromptSet {
	return &PromptSet{Directory: dir}
}

// System returns the persona files joined in a deterministic order,
// excluding planner.md which is appended separately by PlannerPrompt.
func (ps *PromptSet) System() (string, error) {
	files, err := os.ReadDir(ps.Directory)
	if err != nil {
		return "", fmt.Errorf("failed to read prompts directory: %w", err)
	}

	order := map[string]int{
		"identity.md":     1,
		"capabilities.md": 2,
		"safety.md":       3,
		"user.md":         4,
	}

	sort.Slice(files, func(i, j int) bool {
		oi, okI := order[files[i].Name()]
		oj, okJ := order[files[j].Name()]
		if okI && okJ {
			return oi < oj
		}
		if okI {
			return true
		}
		if okJ {
			return false
		}
		return files[i].Name() < files[j].Name()
	})

	var contents []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") || f.Name() == "planner.md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(ps.Directory, f.Name()))
		if err != nil {
			continue
		}
		contents = append(contents, string(data))
	}

	if len(contents) == 0 {
		return "", fmt.Errorf("no prompt files found in %s", ps.Directory)
	}
	return strings.Join(contents, "\n\n---\n\n"), nil
}

// PlannerPrompt returns the full planning system prompt: persona files
// (when present), the planner directive, and the tool catalog.
func (ps *PromptSet) PlannerPrompt(toolLines []string) string {
	var parts []string

	if ps.Directory != "" {
		if system, err := ps.System(); err == nil {
			parts = append(parts, system)
		}
		if data, err := os.ReadFile(filepath.Join(ps.Directory, "planner.md")); err == nil {
			parts = append(parts, string(data))
		}
	}

	if len(parts) == 0 {
		parts = append(parts, defaultPlannerPrompt)
	}

	if len(toolLines) > 0 {
		parts = append(parts, "## Available Tools\n"+strings.Join(toolLines, "\n"))
	}

	return strings.Join(parts, "\n\n")
}
