package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"foreman/internal/governance"
	"foreman/internal/observability"
	"foreman/internal/tools"
)

const (
	// fallbackOutput is synthesized when a round yields neither steps
	// nor a conversational response.
	fallbackOutput = "I have completed processing but have no further output."

	// exhaustedOutput ends a task that hit the round budget.
	exhaustedOutput = "I've reached the maximum number of planning rounds for this task. Please try a simpler request."

	// DefaultMaxRounds bounds the plan/execute cycle per task.
	DefaultMaxRounds = 8
)

// Hooks are the observer callbacks a caller wires into one task.
type Hooks struct {
	// OnProgress receives a full snapshot of every step after each
	// status transition. Snapshots, not deltas.
	OnProgress func(steps []Step)

	// OnApprovalRequired converts a medium/high-risk step into a human
	// yes/no decision. It may suspend indefinitely. A nil hook allows
	// everything.
	OnApprovalRequired func(step Step) bool

	// OnToken receives the model's narration token-by-token.
	OnToken TokenFunc
}

// Request describes one task execution.
type Request struct {
	Goal         string
	AllowedTools []string // empty means every registered tool
	History      []llms.MessageContent
	ModelID      string
	APIKey       string
	Models       []ModelEntry // custom catalog entries for this task
	Hooks        Hooks
}

// TaskResult is the final outcome of a task: every step from every
// round plus the last conversational response.
type TaskResult struct {
	TaskID      string
	Plan        *Plan
	FinalOutput string
}

// Config wires an Orchestrator.
type Config struct {
	Registry        *tools.Registry
	Classifier      *governance.Classifier
	Policy          governance.PolicyEngine
	Logger          *observability.Logger
	Prompts         *PromptSet
	Catalog         *Catalog
	Planner         Planner // optional; overrides catalog model resolution
	MaxRounds       int
	ApprovalTimeout time.Duration
}

// Orchestrator runs the bounded plan -> approve -> execute -> report
// cycle. Exactly one step executes at a time; approvals are one-shot
// decisions keyed by step id and owned by this instance.
type Orchestrator struct {
	registry   *tools.Registry
	classifier *governance.Classifier
	policy     governance.PolicyEngine
	logger     *observability.Logger
	prompts    *PromptSet
	catalog    *Catalog
	planner    Planner
	approvals  *governance.Broker
	maxRounds  int
}

func New(cfg Config) *Orchestrator {
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = governance.NewClassifier()
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	return &Orchestrator{
		registry:   cfg.Registry,
		classifier: classifier,
		policy:     cfg.Policy,
		logger:     cfg.Logger,
		prompts:    cfg.Prompts,
		catalog:    catalog,
		planner:    cfg.Planner,
		approvals:  governance.NewBroker(cfg.ApprovalTimeout),
		maxRounds:  maxRounds,
	}
}

// Approvals exposes the approval broker, letting external surfaces
// resolve a pending decision out of band.
func (o *Orchestrator) Approvals() *governance.Broker {
	return o.approvals
}

// ExecuteTask runs the agent loop for one goal until a round yields a
// conversational answer, the round budget runs out, the planner fails,
// or ctx is cancelled. Step-level failures never abort the task.
func (o *Orchestrator) ExecuteTask(ctx context.Context, req Request) (*TaskResult, error) {
	taskID := uuid.NewString()
	defer observability.SetPhase(observability.PhaseIdle, "")

	allowed := req.AllowedTools
	if len(allowed) == 0 {
		allowed = o.registry.Names()
	}

	planner, err := o.resolvePlanner(req, taskID)
	if err != nil {
		perr := &PlannerError{Cause: "model resolution failed", Err: err}
		o.logTask(taskID, req.Goal, "planner_error")
		return &TaskResult{TaskID: taskID, Plan: &Plan{Goal: req.Goal}, FinalOutput: perr.Error()}, perr
	}

	msgs := o.seedMessages(req, allowed)

	var all []*Step
	for round := 1; round <= o.maxRounds; round++ {
		observability.SetPhase(observability.PhasePlanning, req.Goal)

		plan, err := planner.Generate(ctx, req.Goal, msgs, allowed, req.Hooks.OnToken)
		if err != nil {
			o.logTask(taskID, req.Goal, "planner_error")
			return &TaskResult{
				TaskID:      taskID,
				Plan:        o.aggregate(req.Goal, round, all, ""),
				FinalOutput: err.Error(),
			}, err
		}
		if o.logger != nil {
			o.logger.LogPlan(taskID, round, len(plan.Steps), plan.ConversationalResponse != "")
		}

		if len(plan.Steps) == 0 {
			output := plan.ConversationalResponse
			if output == "" {
				output = fallbackOutput
			}
			o.logTask(taskID, req.Goal, "completed")
			return &TaskResult{
				TaskID:      taskID,
				Plan:        o.aggregate(req.Goal, round, all, output),
				FinalOutput: output,
			}, nil
		}

		all = append(all, plan.Steps...)
		o.report(req.Hooks, all)

		for _, step := range plan.Steps {
			if err := o.runStep(ctx, taskID, req.Hooks, step, allowed, all); err != nil {
				o.logTask(taskID, req.Goal, "canceled")
				return &TaskResult{
					TaskID:      taskID,
					Plan:        o.aggregate(req.Goal, round, all, ""),
					FinalOutput: fmt.Sprintf("task canceled: %v", err),
				}, err
			}
			msgs = foldStep(msgs, step)
		}

		msgs = append(msgs, humanMessage("All steps in this round have finished. Update the plan or provide the final answer."))
	}

	o.logTask(taskID, req.Goal, "round_budget_exhausted")
	return &TaskResult{
		TaskID:      taskID,
		Plan:        o.aggregate(req.Goal, o.maxRounds, all, exhaustedOutput),
		FinalOutput: exhaustedOutput,
	}, nil
}

func (o *Orchestrator) resolvePlanner(req Request, taskID string) (Planner, error) {
	if o.planner != nil {
		return o.planner, nil
	}
	catalog := o.catalog
	if len(req.Models) > 0 {
		catalog = catalog.With(req.Models)
	}
	model, err := catalog.Resolve(req.ModelID, req.APIKey)
	if err != nil {
		return nil, err
	}
	p := NewLLMPlanner(model)
	p.Logger = o.logger
	p.TaskID = taskID
	return p, nil
}

func (o *Orchestrator) seedMessages(req Request, allowed []string) []llms.MessageContent {
	var toolLines []string
	for _, d := range o.registry.Descriptors() {
		for _, name := range allowed {
			if d.Name == name {
				toolLines = append(toolLines, fmt.Sprintf("- %s: %s", d.Name, d.Description))
				break
			}
		}
	}

	prompts := o.prompts
	if prompts == nil {
		prompts = NewPromptSet("")
	}

	msgs := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(prompts.PlannerPrompt(toolLines))},
		},
	}
	msgs = append(msgs, req.History...)
	msgs = append(msgs, humanMessage(req.Goal))
	return msgs
}

// runStep drives one step through its lifecycle. Only a cancelled
// context returns an error; every other failure lands on the step.
func (o *Orchestrator) runStep(ctx context.Context, taskID string, hooks Hooks, step *Step, allowed []string, all []*Step) error {
	if err := ctx.Err(); err != nil {
		step.fail("task canceled")
		o.reportStep(taskID, hooks, step, all)
		return err
	}

	// Planner-side validation may have failed the step already.
	if step.Status.Terminal() {
		o.reportStep(taskID, hooks, step, all)
		return nil
	}

	if res, err := o.screen(ctx, taskID, step); err != nil || res.Effect == governance.EffectDeny {
		reason := "policy evaluation failed"
		if err == nil {
			reason = res.Reason
		}
		step.fail(reason)
		o.reportStep(taskID, hooks, step, all)
		return nil
	}

	tier := o.classifier.Classify(step.Tool)
	if tier.RequiresApproval() {
		approved, err := o.awaitApproval(ctx, taskID, hooks, step, tier)
		if err != nil {
			step.fail("task canceled")
			o.reportStep(taskID, hooks, step, all)
			return err
		}
		if !approved {
			step.fail(governance.DeniedReason)
			o.reportStep(taskID, hooks, step, all)
			return nil
		}
	}

	step.advance(StatusApproved)
	o.reportStep(taskID, hooks, step, all)

	step.advance(StatusExecuting)
	o.reportStep(taskID, hooks, step, all)
	observability.SetPhase(observability.PhaseExecuting, step.Description)

	if o.logger != nil {
		o.logger.LogToolCall(taskID, step.ID, step.Tool, step.Parameters)
	}

	res := o.registry.Execute(ctx, step.Tool, step.Parameters)
	if res.Success {
		step.complete(res.Output, res.Data)
	} else {
		step.fail(res.Error)
		if res.Output != "" {
			step.Result = &StepResult{Output: res.Output}
		}
	}
	o.reportStep(taskID, hooks, step, all)
	return nil
}

func (o *Orchestrator) screen(ctx context.Context, taskID string, step *Step) (governance.Result, error) {
	if o.policy == nil {
		return governance.Result{Effect: governance.EffectAllow}, nil
	}
	return o.policy.Evaluate(ctx, governance.Request{
		Tool:       step.Tool,
		Parameters: step.Parameters,
		TaskID:     taskID,
	})
}

// awaitApproval suspends until exactly one decision arrives for the
// step, the broker timeout expires (deny), or ctx is cancelled.
func (o *Orchestrator) awaitApproval(ctx context.Context, taskID string, hooks Hooks, step *Step, tier governance.Tier) (bool, error) {
	if hooks.OnApprovalRequired == nil {
		return true, nil
	}

	ch, err := o.approvals.Open(step.ID)
	if err != nil {
		return false, nil
	}

	observability.SetPhase(observability.PhaseAwaitingApproval, step.Description)

	go func(snapshot Step) {
		o.approvals.Resolve(snapshot.ID, hooks.OnApprovalRequired(snapshot))
	}(step.snapshot())

	approved, err := o.approvals.Wait(ctx, step.ID, ch)
	if o.logger != nil && err == nil {
		o.logger.LogApproval(taskID, step.ID, tier.String(), approved)
	}
	return approved, err
}

func (o *Orchestrator) report(hooks Hooks, all []*Step) {
	if hooks.OnProgress != nil {
		hooks.OnProgress(snapshotSteps(all))
	}
}

func (o *Orchestrator) reportStep(taskID string, hooks Hooks, step *Step, all []*Step) {
	if o.logger != nil {
		o.logger.LogStep(taskID, step.ID, step.Tool, string(step.Status), step.Error)
	}
	o.report(hooks, all)
}

func (o *Orchestrator) logTask(taskID, goal, outcome string) {
	if o.logger != nil {
		o.logger.LogTask(taskID, goal, outcome)
	}
}

func (o *Orchestrator) aggregate(goal string, round int, all []*Step, response string) *Plan {
	return &Plan{
		Goal:                   goal,
		Round:                  round,
		Steps:                  all,
		ConversationalResponse: response,
	}
}

// foldStep records a finished step's outcome in the conversation so the
// next planning round sees it.
func foldStep(msgs []llms.MessageContent, step *Step) []llms.MessageContent {
	output := ""
	if step.Result != nil {
		output = step.Result.Output
	}
	if step.Error != "" {
		output = fmt.Sprintf("error: %s", step.Error)
	}

	msgs = append(msgs, llms.MessageContent{
		Role:  llms.ChatMessageTypeAI,
		Parts: []llms.ContentPart{llms.TextPart(fmt.Sprintf("Executed step %s (%s).", step.ID, step.Tool))},
	})
	return append(msgs, humanMessage(fmt.Sprintf("Step %s finished with status %s.\nOutput: %s", step.ID, step.Status, output)))
}

func humanMessage(text string) llms.MessageContent {
	return llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	}
}
