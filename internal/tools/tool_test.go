package tools

import (
	"context"
	"errors"
	"testing"
)

func spySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"age":  map[string]any{"type": "integer"},
		},
		"required": []string{"name"},
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), "nope", nil)
	if res.Success {
		t.Error("expected failure for unknown tool")
	}
	if res.Error == "" {
		t.Error("expected descriptive error")
	}
}

func TestRegistry_SchemaValidation(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register(&Descriptor{
		Name:       "spy",
		Parameters: spySchema(),
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			called = true
			return "ok", nil, nil
		},
	})

	// Missing required key: handler must never run.
	res := r.Execute(context.Background(), "spy", map[string]any{"age": 3})
	if res.Success {
		t.Error("expected failure for missing required parameter")
	}
	if called {
		t.Error("handler must not be invoked on schema mismatch")
	}

	// Wrong type for a declared property.
	res = r.Execute(context.Background(), "spy", map[string]any{"name": "x", "age": "old"})
	if res.Success {
		t.Error("expected failure for wrong parameter type")
	}
	if called {
		t.Error("handler must not be invoked on type mismatch")
	}

	// Valid params dispatch; json-style float64 integers are accepted.
	res = r.Execute(context.Background(), "spy", map[string]any{"name": "x", "age": float64(3)})
	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if !called {
		t.Error("handler should have been invoked")
	}
	if res.Output != "ok" {
		t.Errorf("unexpected output: %q", res.Output)
	}
}

func TestRegistry_HandlerErrorAsData(t *testing.T) {
	r := NewRegistry()
	r.Register(&Descriptor{
		Name: "boom",
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			return "partial", nil, errors.New("disk full")
		},
	})

	res := r.Execute(context.Background(), "boom", nil)
	if res.Success {
		t.Error("expected failure")
	}
	if res.Error != "disk full" {
		t.Errorf("unexpected error text: %q", res.Error)
	}
	if res.Output != "partial" {
		t.Errorf("partial output should be preserved, got %q", res.Output)
	}
}

func TestRegistry_HandlerPanicAsData(t *testing.T) {
	r := NewRegistry()
	r.Register(&Descriptor{
		Name: "panicky",
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			panic("boom")
		},
	})

	res := r.Execute(context.Background(), "panicky", nil)
	if res.Success {
		t.Error("expected failure")
	}
	if res.Error == "" {
		t.Error("expected panic to surface as error data")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(&Descriptor{Name: "b"})
	r.Register(&Descriptor{Name: "a"})

	names := r.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("expected sorted names [a b], got %v", names)
	}
}
