package tools

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

// RegisterSearch registers the web_search tool backed by DuckDuckGo.
func RegisterSearch(r *Registry) error {
	ddg, err := duckduckgo.New(10, duckduckgo.DefaultUserAgent)
	if err != nil {
		return err
	}

	r.Register(&Descriptor{
		Name:        "web_search",
		Description: "Search the web using DuckDuckGo for real-time information.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query to look up",
				},
			},
			"required": []string{"query"},
		},
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			res, err := ddg.Call(ctx, stringParam(params, "query"))
			if err != nil {
				return "", nil, fmt.Errorf("search failed: %w", err)
			}
			return res, nil, nil
		},
	})
	return nil
}
