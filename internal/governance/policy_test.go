package governance

import (
	"context"
	"testing"
)

func TestDefaultPolicyEngine_Evaluate(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	ctx := context.Background()

	// Test Allow (Default)
	req1 := Request{Tool: "web_search"}
	res1, err := engine.Evaluate(ctx, req1)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res1.Effect != EffectAllow {
		t.Errorf("Expected EffectAllow, got %s", res1.Effect)
	}

	// Test Deny
	engine.DenyTool("run_command")
	req2 := Request{Tool: "run_command"}
	res2, err := engine.Evaluate(ctx, req2)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res2.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny, got %s", res2.Effect)
	}
}

func TestDefaultPolicyEngine_DenyArguments(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	if err := engine.DenyArguments(`rm\s+-rf`); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	res, err := engine.Evaluate(ctx, Request{
		Tool:       "run_command",
		Parameters: map[string]any{"command": "rm -rf /tmp/scratch"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny for matching arguments, got %s", res.Effect)
	}

	res, err = engine.Evaluate(ctx, Request{
		Tool:       "run_command",
		Parameters: map[string]any{"command": "ls -la"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Effect != EffectAllow {
		t.Errorf("Expected EffectAllow for benign arguments, got %s", res.Effect)
	}
}

func TestDefaultPolicyEngine_BadPattern(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	if err := engine.DenyArguments(`([`); err == nil {
		t.Error("expected error for invalid regex")
	}
}
