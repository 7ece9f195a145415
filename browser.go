package mermaid

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mermaid/internal/fileutil"
)

// DefaultScriptURL is the mermaid build loaded by BrowserRenderer.
const DefaultScriptURL = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

// renderScript renders one diagram on a blank page that has mermaid loaded.
const renderScript = `async (theme, source) => {
	mermaid.initialize({ startOnLoad: false, theme: theme });
	const { svg } = await mermaid.render("mermaid-svg", source);
	return svg;
}`

// BrowserRenderer renders diagrams with mermaid.js inside one shared
// headless Chrome (go-rod), without the Node.js toolchain mmdc needs.
// Each call gets its own page, so calls may run concurrently.
//
// Set ROD_BROWSER_BIN to use a specific Chrome binary and ROD_NO_SANDBOX=1
// in containers. Close releases the browser.
type BrowserRenderer struct {
	ScriptURL string        // URL or local path of mermaid.min.js (default DefaultScriptURL)
	Timeout   time.Duration // per-diagram limit, 0 means none

	mu      sync.Mutex
	browser *rod.Browser
	script  string
}

// NewBrowserRenderer creates a BrowserRenderer loading DefaultScriptURL.
func NewBrowserRenderer() *BrowserRenderer {
	return &BrowserRenderer{ScriptURL: DefaultScriptURL}
}

// Check verifies a Chrome binary is available, either through
// ROD_BROWSER_BIN or on the system.
func (r *BrowserRenderer) Check(_ context.Context) error {
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		if !fileutil.FileExists(bin) {
			return fmt.Errorf("%w: ROD_BROWSER_BIN=%s does not exist", ErrToolNotFound, bin)
		}
		return nil
	}
	if _, ok := launcher.LookPath(); !ok {
		return fmt.Errorf("%w: no Chrome or Chromium installation found", ErrToolNotFound)
	}
	return nil
}

// Render evaluates mermaid.render for source on a fresh page.
func (r *BrowserRenderer) Render(ctx context.Context, source, theme string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return "", err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("%w: creating page: %v", ErrRenderFailed, err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx)

	if err := r.loadScript(page); err != nil {
		return "", describeBrowserFailure(ctx, "loading mermaid", err)
	}

	res, err := page.Eval(renderScript, theme, source)
	if err != nil {
		return "", describeBrowserFailure(ctx, "rendering", err)
	}

	svg := res.Value.Str()
	if strings.TrimSpace(svg) == "" {
		return "", fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}
	return svg, nil
}

// Close releases browser resources.
func (r *BrowserRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// ensureBrowser lazily launches and connects to the browser.
func (r *BrowserRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launching browser: %v", ErrToolNotFound, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connecting to browser: %v", ErrRenderFailed, err)
	}
	r.browser = browser
	return browser, nil
}

// loadScript injects mermaid into page, reading a local script once.
func (r *BrowserRenderer) loadScript(page *rod.Page) error {
	src := r.ScriptURL
	if src == "" {
		src = DefaultScriptURL
	}
	if fileutil.IsURL(src) {
		return page.AddScriptTag(src, "")
	}

	content, err := r.localScript(src)
	if err != nil {
		return err
	}
	return page.AddScriptTag("", content)
}

func (r *BrowserRenderer) localScript(path string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.script != "" {
		return r.script, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator configuration
	if err != nil {
		return "", fmt.Errorf("reading mermaid script: %w", err)
	}
	r.script = string(data)
	return r.script, nil
}

func describeBrowserFailure(ctx context.Context, stage string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrRenderFailed, stage, ctxErr)
	}
	return fmt.Errorf("%w: %s: %v", ErrRenderFailed, stage, err)
}
