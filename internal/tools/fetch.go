package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const (
	fetchUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	maxFetchContent = 50000
)

// RegisterFetch registers the fetch_url tool: fetch a webpage and
// extract the main content as clean, sanitized text.
func RegisterFetch(r *Registry) {
	client := &http.Client{Timeout: 30 * time.Second}
	policy := bluemonday.StrictPolicy()

	r.Register(&Descriptor{
		Name:        "fetch_url",
		Description: "Fetch a webpage URL and extract the main content as clean text.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "The full URL of the webpage to fetch (e.g. https://example.com/article)",
				},
			},
			"required": []string{"url"},
		},
		Handler: func(ctx context.Context, params map[string]any) (string, any, error) {
			rawURL := stringParam(params, "url")

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return "", nil, fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("User-Agent", fetchUserAgent)

			resp, err := client.Do(req)
			if err != nil {
				return "", nil, fmt.Errorf("failed to fetch URL: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return "", nil, fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
			}

			parsedURL, err := url.Parse(rawURL)
			if err != nil {
				return "", nil, fmt.Errorf("failed to parse URL: %w", err)
			}

			article, err := readability.FromReader(resp.Body, parsedURL)
			if err != nil {
				return "", nil, fmt.Errorf("failed to parse article: %w", err)
			}

			sanitized := policy.Sanitize(article.TextContent)
			if len(sanitized) > maxFetchContent {
				sanitized = sanitized[:maxFetchContent] + "\n... (content truncated) ..."
			}

			output := fmt.Sprintf("TITLE: %s\n", article.Title)
			if article.Excerpt != "" {
				output += fmt.Sprintf("EXCERPT: %s\n", article.Excerpt)
			}
			output += "\n-- CONTENT --\n" + sanitized

			return output, nil, nil
		},
	})
}
