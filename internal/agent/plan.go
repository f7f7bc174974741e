package agent

// Status is the lifecycle state of a step. Transitions are monotonic
// and one-directional; a completed or failed step is never re-entered.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusApproved:
		return 1
	case StatusExecuting:
		return 2
	case StatusCompleted, StatusFailed:
		return 3
	}
	return -1
}

// StepResult holds the outcome of a completed tool invocation.
type StepResult struct {
	Output string `json:"output"`
	Data   any    `json:"data,omitempty"`
}

// Step represents a single tool invocation request plus its lifecycle
// state. Steps are owned by the orchestrator for their lifetime and
// read-only to observers.
type Step struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Tool        string         `json:"tool"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Status      Status         `json:"status"`
	Result      *StepResult    `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// advance moves the step forward to the next non-terminal state.
// Regressions and transitions out of a terminal state are rejected.
func (s *Step) advance(to Status) bool {
	if s.Status.Terminal() {
		return false
	}
	if to == StatusCompleted && s.Status != StatusExecuting {
		return false
	}
	if to.rank() <= s.Status.rank() {
		return false
	}
	s.Status = to
	return true
}

// complete marks an executing step as finished with its result.
func (s *Step) complete(output string, data any) bool {
	if !s.advance(StatusCompleted) {
		return false
	}
	s.Result = &StepResult{Output: output, Data: data}
	return true
}

// fail terminally fails the step with a reason. Unlike complete it is
// legal from any non-terminal state: denial and validation both fail a
// step that never reached executing.
func (s *Step) fail(reason string) bool {
	if !s.advance(StatusFailed) {
		return false
	}
	s.Error = reason
	return true
}

// snapshot returns a value copy safe to hand to observers.
func (s *Step) snapshot() Step {
	cp := *s
	if s.Parameters != nil {
		cp.Parameters = make(map[string]any, len(s.Parameters))
		for k, v := range s.Parameters {
			cp.Parameters[k] = v
		}
	}
	if s.Result != nil {
		r := *s.Result
		cp.Result = &r
	}
	return cp
}

// Plan is one planner round's output: either an ordered list of steps
// to execute or a final conversational answer. A plan is never mutated
// after creation; its steps are mutated in place as they execute.
type Plan struct {
	Goal                   string  `json:"goal"`
	Round                  int     `json:"round,omitempty"`
	Steps                  []*Step `json:"steps"`
	ConversationalResponse string  `json:"conversational_response,omitempty"`
}

// snapshotSteps copies a step list for the progress callback.
func snapshotSteps(steps []*Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = s.snapshot()
	}
	return out
}
