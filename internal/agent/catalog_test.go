package agent

import (
	"strings"
	"testing"
)

func TestCatalog_CustomEntriesShadowBuiltins(t *testing.T) {
	c := NewCatalog([]ModelEntry{
		{ID: "gpt-4o", Provider: "openrouter", Model: "openai/gpt-4o", BaseURL: "https://openrouter.ai/api/v1"},
		{ID: "local", Provider: "openai", Model: "llama3", BaseURL: "http://localhost:11434/v1"},
	})

	e, ok := c.Lookup("gpt-4o")
	if !ok || e.Provider != "openrouter" {
		t.Errorf("custom entry should shadow builtin, got %+v", e)
	}
	if _, ok := c.Lookup("gpt-4o-mini"); !ok {
		t.Error("untouched builtin should remain")
	}
	if _, ok := c.Lookup("local"); !ok {
		t.Error("custom entry should be listed")
	}
}

func TestCatalog_WithDoesNotMutateBase(t *testing.T) {
	base := NewCatalog(nil)
	ext := base.With([]ModelEntry{{ID: "gpt-4o", Provider: "openrouter", Model: "openai/gpt-4o"}})

	if e, _ := ext.Lookup("gpt-4o"); e.Provider != "openrouter" {
		t.Errorf("extended catalog should see the override, got %+v", e)
	}
	if e, _ := base.Lookup("gpt-4o"); e.Provider != "openai" {
		t.Errorf("base catalog must stay untouched, got %+v", e)
	}
}

func TestCatalog_ResolveErrors(t *testing.T) {
	c := NewCatalog([]ModelEntry{{ID: "odd", Provider: "anthropic", Model: "claude"}})

	if _, err := c.Resolve("nope", "key"); err == nil || !strings.Contains(err.Error(), "unknown model id") {
		t.Errorf("unknown id should fail, got %v", err)
	}
	if _, err := c.Resolve("gpt-4o", ""); err == nil || !strings.Contains(err.Error(), "missing API key") {
		t.Errorf("empty key should fail, got %v", err)
	}
	if _, err := c.Resolve("odd", "key"); err == nil || !strings.Contains(err.Error(), "unsupported provider") {
		t.Errorf("unsupported provider should fail, got %v", err)
	}
}

func TestCatalog_ResolveOpenAI(t *testing.T) {
	c := NewCatalog(nil)
	model, err := c.Resolve("gpt-4o-mini", "sk-test")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if model == nil {
		t.Fatal("expected a client")
	}
}
