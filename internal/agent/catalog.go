package agent

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ModelEntry describes one selectable model: which provider serves it
// and under which upstream name.
type ModelEntry struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url,omitempty"`
}

// Catalog resolves a model id to a concrete client. Custom entries
// shadow the built-in ones.
type Catalog struct {
	entries map[string]ModelEntry
}

func builtinModels() []ModelEntry {
	return []ModelEntry{
		{ID: "gpt-4o", Provider: "openai", Model: "gpt-4o"},
		{ID: "gpt-4o-mini", Provider: "openai", Model: "gpt-4o-mini"},
	}
}

// NewCatalog builds a catalog from the built-in models plus custom
// entries, custom taking precedence on id collisions.
func NewCatalog(custom []ModelEntry) *Catalog {
	c := &Catalog{entries: make(map[string]ModelEntry)}
	for _, e := range builtinModels() {
		c.entries[e.ID] = e
	}
	for _, e := range custom {
		c.entries[e.ID] = e
	}
	return c
}

// With returns a copy of the catalog extended with entries, which
// shadow existing ids.
func (c *Catalog) With(entries []ModelEntry) *Catalog {
	out := &Catalog{entries: make(map[string]ModelEntry, len(c.entries)+len(entries))}
	for id, e := range c.entries {
		out.entries[id] = e
	}
	for _, e := range entries {
		out.entries[e.ID] = e
	}
	return out
}

// Lookup returns the entry for a model id.
func (c *Catalog) Lookup(id string) (ModelEntry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Resolve builds a client for the model id with the given credentials.
func (c *Catalog) Resolve(id, apiKey string) (llms.Model, error) {
	entry, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("unknown model id: %s", id)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for model %s", id)
	}

	switch entry.Provider {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(apiKey),
			openai.WithModel(entry.Model),
		}
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q for model %s", entry.Provider, id)
	}
}
