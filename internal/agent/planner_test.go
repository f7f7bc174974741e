package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel is a canned llms.Model for bridge tests. It applies call
// options so streaming can be exercised.
type fakeModel struct {
	resp   *llms.ContentResponse
	err    error
	stream []string // chunks fed to the streaming func before returning
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}
	if opts.StreamingFunc != nil {
		for _, chunk := range f.stream {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func planResponse(args string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				ToolCalls: []llms.ToolCall{
					{
						ID:   "call-1",
						Type: "function",
						FunctionCall: &llms.FunctionCall{
							Name:      proposePlanName,
							Arguments: args,
						},
					},
				},
			},
		},
	}
}

func TestLLMPlanner_ParsesProposedPlan(t *testing.T) {
	p := NewLLMPlanner(&fakeModel{resp: planResponse(
		`{"steps":[{"id":1,"description":"list files","tool":"list_directory","parameters":{"path":"."}}]}`,
	)})

	plan, err := p.Generate(context.Background(), "list files", nil, []string{"list_directory"}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(plan.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(plan.Steps))
	}

	step := plan.Steps[0]
	if step.Tool != "list_directory" {
		t.Errorf("tool = %q", step.Tool)
	}
	if step.Status != StatusPending {
		t.Errorf("status = %s, want pending", step.Status)
	}
	if step.ID == "" {
		t.Error("step must get an id")
	}
	if step.Parameters["path"] != "." {
		t.Errorf("parameters not carried: %v", step.Parameters)
	}
}

func TestLLMPlanner_DisallowedToolSurfacedNotDropped(t *testing.T) {
	p := NewLLMPlanner(&fakeModel{resp: planResponse(
		`{"steps":[{"description":"wipe","tool":"delete_file","parameters":{"path":"x"}}]}`,
	)})

	plan, err := p.Generate(context.Background(), "goal", nil, []string{"list_directory"}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(plan.Steps) != 1 {
		t.Fatalf("disallowed step must not be dropped, got %d steps", len(plan.Steps))
	}
	step := plan.Steps[0]
	if step.Status != StatusFailed {
		t.Errorf("status = %s, want failed", step.Status)
	}
	if !strings.Contains(step.Error, "not permitted") {
		t.Errorf("unexpected error: %q", step.Error)
	}
}

func TestLLMPlanner_ConversationalAnswer(t *testing.T) {
	p := NewLLMPlanner(&fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "All done."}},
	}})

	plan, err := p.Generate(context.Background(), "goal", nil, nil, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(plan.Steps) != 0 {
		t.Errorf("expected no steps, got %d", len(plan.Steps))
	}
	if plan.ConversationalResponse != "All done." {
		t.Errorf("response = %q", plan.ConversationalResponse)
	}
}

func TestLLMPlanner_MalformedPlanIsPlannerError(t *testing.T) {
	p := NewLLMPlanner(&fakeModel{resp: planResponse(`{"steps": not json`)})

	_, err := p.Generate(context.Background(), "goal", nil, nil, nil)
	var perr *PlannerError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PlannerError, got %v", err)
	}
	if !strings.Contains(perr.Error(), "malformed") {
		t.Errorf("unexpected cause: %v", perr)
	}
}

func TestLLMPlanner_ModelErrorIsPlannerError(t *testing.T) {
	p := NewLLMPlanner(&fakeModel{err: errors.New("401 unauthorized")})

	_, err := p.Generate(context.Background(), "goal", nil, nil, nil)
	var perr *PlannerError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PlannerError, got %v", err)
	}
	if !strings.Contains(perr.Error(), "authentication") {
		t.Errorf("401 should classify as authentication failure: %v", perr)
	}
}

func TestLLMPlanner_StreamingReconstruction(t *testing.T) {
	const original = "I will inspect the directory, then summarize what I find."

	// Arbitrary, uneven chunk boundaries.
	var chunks []string
	for i := 0; i < len(original); {
		size := 1 + (i*7)%5
		end := i + size
		if end > len(original) {
			end = len(original)
		}
		chunks = append(chunks, original[i:end])
		i = end
	}

	p := NewLLMPlanner(&fakeModel{
		resp:   &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: original}}},
		stream: chunks,
	})

	var got strings.Builder
	_, err := p.Generate(context.Background(), "goal", nil, nil, func(text string) {
		got.WriteString(text)
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got.String() != original {
		t.Errorf("streamed text mismatch:\n got: %q\nwant: %q", got.String(), original)
	}
}
