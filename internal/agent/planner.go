package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"foreman/internal/observability"
)

// TokenFunc receives narration text token-by-token, in generation order.
type TokenFunc func(text string)

// PlannerError is the single failure surface of the planning bridge:
// authentication, network and malformed-model-output problems all
// arrive here. Any PlannerError aborts the whole task.
type PlannerError struct {
	Cause string
	Err   error
}

func (e *PlannerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planner: %s: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("planner: %s", e.Cause)
}

func (e *PlannerError) Unwrap() error { return e.Err }

func plannerFailure(err error) *PlannerError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key"):
		return &PlannerError{Cause: "authentication failed", Err: err}
	default:
		return &PlannerError{Cause: "model request failed", Err: err}
	}
}

// Planner produces one round's plan from the goal and accumulated
// conversation, streaming narration through onToken as it is generated.
type Planner interface {
	Generate(ctx context.Context, goal string, messages []llms.MessageContent, allowed []string, onToken TokenFunc) (*Plan, error)
}

// LLMPlanner bridges to a language model. The model either calls the
// propose_plan function with a structured step list or answers in plain
// text; text is streamed, step lists only exist once fully parsed.
type LLMPlanner struct {
	Model  llms.Model
	Logger *observability.Logger
	TaskID string
}

func NewLLMPlanner(model llms.Model) *LLMPlanner {
	return &LLMPlanner{Model: model}
}

const proposePlanName = "propose_plan"

func proposePlanTool(allowed []string) []llms.Tool {
	return []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        proposePlanName,
				Description: "Submit a structured plan: an ordered list of tool invocations to perform next.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"steps": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"description": map[string]any{
										"type":        "string",
										"description": "What this step accomplishes",
									},
									"tool": map[string]any{
										"type":        "string",
										"enum":        allowed,
										"description": "The tool to invoke",
									},
									"parameters": map[string]any{
										"type":        "object",
										"description": "The arguments for the tool",
									},
								},
								"required": []string{"description", "tool", "parameters"},
							},
						},
					},
					"required": []string{"steps"},
				},
			},
		},
	}
}

type stepPayload struct {
	ID          any            `json:"id,omitempty"`
	Description string         `json:"description"`
	Tool        string         `json:"tool"`
	Parameters  map[string]any `json:"parameters"`
}

type planPayload struct {
	Steps []stepPayload `json:"steps"`
}

func (p *LLMPlanner) Generate(ctx context.Context, goal string, messages []llms.MessageContent, allowed []string, onToken TokenFunc) (*Plan, error) {
	opts := []llms.CallOption{
		llms.WithTools(proposePlanTool(allowed)),
	}
	if onToken != nil {
		opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) > 0 {
				onToken(string(chunk))
			}
			return nil
		}))
	}

	resp, err := p.Model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, plannerFailure(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &PlannerError{Cause: "model returned no choices"}
	}
	choice := resp.Choices[0]
	p.logUsage(choice)

	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil || tc.FunctionCall.Name != proposePlanName {
			continue
		}
		var payload planPayload
		if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &payload); err != nil {
			return nil, &PlannerError{Cause: "malformed plan from model", Err: err}
		}
		return buildPlan(goal, payload, allowed), nil
	}

	// No structured plan: the text content is the final answer. An
	// empty plan with no response is the "done, no output" case the
	// orchestrator handles.
	return &Plan{Goal: goal, ConversationalResponse: choice.Content}, nil
}

// buildPlan turns the parsed payload into pending steps. A step naming
// a tool outside the allowed set is surfaced as a validation failure,
// never silently dropped.
func buildPlan(goal string, payload planPayload, allowed []string) *Plan {
	allowedSet := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = true
	}

	plan := &Plan{Goal: goal}
	for _, sp := range payload.Steps {
		step := &Step{
			ID:          stepID(sp.ID),
			Description: sp.Description,
			Tool:        sp.Tool,
			Parameters:  sp.Parameters,
			Status:      StatusPending,
		}
		if !allowedSet[sp.Tool] {
			step.fail(fmt.Sprintf("tool %q is not permitted for this task", sp.Tool))
		}
		plan.Steps = append(plan.Steps, step)
	}
	return plan
}

func stepID(raw any) string {
	switch v := raw.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("step-%d", int(v))
	}
	return uuid.NewString()
}

func (p *LLMPlanner) logUsage(choice *llms.ContentChoice) {
	if p.Logger == nil || choice.GenerationInfo == nil {
		return
	}
	prompt, _ := choice.GenerationInfo["PromptTokens"].(int)
	completion, _ := choice.GenerationInfo["CompletionTokens"].(int)
	if prompt > 0 || completion > 0 {
		p.Logger.LogUsage(p.TaskID, prompt, completion)
	}
}
