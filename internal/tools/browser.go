package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
)

// Browser holds one headless Chrome session shared by all browser tool
// calls. The session is started lazily on first use and survives across
// calls until a 'close' action or Shutdown.
type Browser struct {
	mu            sync.Mutex
	workspace     *Workspace
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

func NewBrowser(ws *Workspace) *Browser {
	return &Browser{workspace: ws}
}

func (b *Browser) init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		select {
		case <-b.browserCtx.Done():
			b.cleanup()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	return chromedp.Run(b.browserCtx)
}

func (b *Browser) cleanup() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.allocCtx = nil
}

// Shutdown closes the Chrome session if one is running.
func (b *Browser) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanup()
}

// RegisterBrowser registers the browser tool over a shared session.
func RegisterBrowser(r *Registry, b *Browser) {
	r.Register(&Descriptor{
		Name:        "browser",
		Description: "Control a headless browser session. The session stays open until 'close'. Actions: 'navigate', 'content', 'screenshot', 'close'.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action": map[string]any{
					"type":        "string",
					"enum":        []string{"navigate", "content", "screenshot", "close"},
					"description": "The browser action to perform",
				},
				"url": map[string]any{
					"type":        "string",
					"description": "The URL to open (used with 'navigate')",
				},
			},
			"required": []string{"action"},
		},
		Handler: b.handle,
	})
}

func (b *Browser) handle(ctx context.Context, params map[string]any) (string, any, error) {
	action := stringParam(params, "action")

	if action == "close" {
		b.Shutdown()
		return "Successfully closed the browser.", nil, nil
	}

	if err := b.init(); err != nil {
		return "", nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	actionCtx, cancel := context.WithTimeout(b.browserCtx, 60*time.Second)
	defer cancel()

	switch action {
	case "navigate":
		url := stringParam(params, "url")
		if url == "" {
			return "", nil, fmt.Errorf("url is required for 'navigate'")
		}
		if err := chromedp.Run(actionCtx, chromedp.Navigate(url)); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Successfully navigated to %s", url), nil, nil

	case "content":
		var html string
		err := chromedp.Run(actionCtx,
			chromedp.ActionFunc(func(ctx context.Context) error {
				node, err := dom.GetDocument().Do(ctx)
				if err != nil {
					return err
				}
				html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
				return err
			}),
		)
		if err != nil {
			return "", nil, err
		}
		if len(html) > maxFetchContent {
			html = html[:maxFetchContent] + "\n... (truncated)"
		}
		return html, nil, nil

	case "screenshot":
		var buf []byte
		if err := chromedp.Run(actionCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
			return "", nil, err
		}
		dir := filepath.Join(b.workspace.Root, "screenshots")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("screenshot_%d.png", time.Now().Unix()))
		if err := os.WriteFile(path, buf, 0644); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Screenshot saved to %s", path), nil, nil
	}

	return "", nil, fmt.Errorf("invalid action: %s", action)
}
