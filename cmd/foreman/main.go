package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"foreman/internal/agent"
	"foreman/internal/gateway"
	"foreman/internal/governance"
	"foreman/internal/observability"
	"foreman/internal/store"
	"foreman/internal/tools"
	"foreman/pkg/config"
)

func main() {
	observability.PrintBanner()

	// Route all log output through the terminal mutex so it never
	// interleaves with streamed tokens or approval prompts.
	log.SetOutput(observability.NewTermWriter())

	cfg := config.LoadConfig("config.json")

	workspace := tools.NewWorkspace(cfg.App.Workspace)
	if err := os.MkdirAll(workspace.Root, 0755); err != nil {
		log.Fatalf("failed to create workspace: %v", err)
	}

	registry := tools.NewRegistry()
	tools.RegisterFilesystem(registry, workspace)
	tools.RegisterShell(registry, workspace)
	tools.RegisterProject(registry, workspace)
	tools.RegisterVCS(registry, workspace)
	tools.RegisterFetch(registry)

	if err := tools.RegisterSearch(registry); err != nil {
		log.Printf("Warning: failed to initialize search tool: %v", err)
	}

	browser := tools.NewBrowser(workspace)
	tools.RegisterBrowser(registry, browser)
	defer browser.Shutdown()

	classifier := governance.NewClassifier()
	if cfg.Governance.RiskTable != "" {
		if err := classifier.LoadOverrides(cfg.Governance.RiskTable); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	policy := governance.NewDefaultPolicyEngine()
	// Default safety rules: block destructive commands outright.
	_ = policy.DenyArguments(`rm\s+-rf\s+/`)
	_ = policy.DenyArguments(`mkfs`)
	_ = policy.DenyArguments(`shutdown`)
	_ = policy.DenyArguments(`reboot`)
	for _, tool := range cfg.Governance.DeniedTools {
		policy.DenyTool(tool)
	}
	for _, pattern := range cfg.Governance.DeniedArgumentRegexes {
		if err := policy.DenyArguments(pattern); err != nil {
			log.Printf("Warning: bad denied_argument_patterns entry %q: %v", pattern, err)
		}
	}

	history, err := store.NewHistoryStore(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer history.Close()

	logger := observability.NewLogger()

	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Fatal("No enabled provider found in config")
	}

	var models []agent.ModelEntry
	for _, m := range cfg.Models {
		models = append(models, agent.ModelEntry{ID: m.ID, Provider: m.Provider, Model: m.Model, BaseURL: m.BaseURL})
	}
	// Make the provider's configured model selectable even when the
	// catalog doesn't list it.
	models = append(models, agent.ModelEntry{ID: pCfg.Model, Provider: pName, Model: pCfg.Model, BaseURL: pCfg.BaseURL})

	orch := agent.New(agent.Config{
		Registry:        registry,
		Classifier:      classifier,
		Policy:          policy,
		Logger:          logger,
		Prompts:         agent.NewPromptSet(cfg.App.Prompts),
		MaxRounds:       cfg.Limits.MaxRounds,
		ApprovalTimeout: time.Duration(cfg.Limits.ApprovalTimeoutSeconds) * time.Second,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defaults := gateway.TaskDefaults{
		ModelID: pCfg.Model,
		APIKey:  pCfg.APIKey,
		Models:  models,
	}

	if tgCfg, ok := cfg.GetTelegramConfig(); ok {
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, orch, history, defaults)
		if err != nil {
			log.Fatal(err)
		}
		go func() {
			if err := tg.Start(ctx); err != nil && ctx.Err() == nil {
				log.Printf("telegram gateway stopped: %v", err)
			}
		}()
		defer tg.Stop()
	}

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()

	runInteractive(ctx, orch, history, defaults)

	log.Println("Shutting down.")
}

// runInteractive reads goals from stdin and executes them one at a
// time, streaming narration and prompting for approvals inline.
func runInteractive(ctx context.Context, orch *agent.Orchestrator, history *store.HistoryStore, defaults gateway.TaskDefaults) {
	reader := bufio.NewReader(os.Stdin)
	const session = "cli"

	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Print("\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		goal := strings.TrimSpace(line)
		if goal == "" {
			continue
		}
		if goal == "exit" || goal == "quit" {
			return
		}

		prior, _ := history.GetHistory(session, 10)

		req := agent.Request{
			Goal:    goal,
			History: prior,
			ModelID: defaults.ModelID,
			APIKey:  defaults.APIKey,
			Models:  defaults.Models,
			Hooks: agent.Hooks{
				OnToken: func(text string) {
					fmt.Print(text)
				},
				OnProgress: printProgress(),
				OnApprovalRequired: func(step agent.Step) bool {
					return promptApproval(reader, step)
				},
			},
		}

		result, err := orch.ExecuteTask(ctx, req)
		if err != nil {
			log.Printf("task failed: %v", err)
		}
		if result == nil {
			continue
		}

		fmt.Printf("\n\n%s\n", result.FinalOutput)

		_ = history.AddMessage(session, "human", goal)
		_ = history.AddMessage(session, "ai", result.FinalOutput)
		if result.Plan != nil {
			_ = history.RecordRun(session, result.TaskID, goal, result.FinalOutput, result.Plan.Steps)
		}
	}
}

// printProgress returns a progress hook that prints one line per step
// transition.
func printProgress() func(steps []agent.Step) {
	seen := make(map[string]agent.Status)
	return func(steps []agent.Step) {
		for _, s := range steps {
			if seen[s.ID] == s.Status {
				continue
			}
			seen[s.ID] = s.Status
			switch s.Status {
			case agent.StatusExecuting:
				fmt.Printf("\n[....] %s (%s)", s.Description, s.Tool)
			case agent.StatusCompleted:
				fmt.Printf("\n[ OK ] %s", s.Description)
			case agent.StatusFailed:
				fmt.Printf("\n[FAIL] %s: %s", s.Description, s.Error)
			}
		}
	}
}

func promptApproval(reader *bufio.Reader, step agent.Step) bool {
	fmt.Printf("\n\n⚠️  Approval required for %s: %s\nAllow? [y/N] ", step.Tool, step.Description)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
