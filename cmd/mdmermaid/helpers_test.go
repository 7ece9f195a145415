package main

// Notes:
// - Shared fixtures for the command tests: an Environment writing to
//   buffers and a fake renderer that records every call. No test needs
//   mmdc or Chrome.

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	mermaid "github.com/alnah/go-mermaid"
	"github.com/alnah/go-mermaid/internal/assets"
	"github.com/alnah/go-mermaid/internal/config"
)

// testEnv returns an Environment writing to buffers.
func testEnv(r mermaid.Renderer) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:      time.Now,
		Stdout:   &stdout,
		Stderr:   &stderr,
		Config:   config.DefaultConfig(),
		Renderer: r,
		Runner:   mermaid.RunnerFunc(func(context.Context, string, ...string) (string, string, error) { return "", "", nil }),
	}
	return env, &stdout, &stderr
}

// recordingRenderer returns SVG tagged with the theme and records calls.
type recordingRenderer struct {
	mu      sync.Mutex
	calls   []string // theme per call
	sources []string // source per call
	failOn  string   // source substring that makes Render fail
}

func (r *recordingRenderer) Render(_ context.Context, source, theme string) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, theme)
	r.sources = append(r.sources, source)
	r.mu.Unlock()

	if r.failOn != "" && bytes.Contains([]byte(source), []byte(r.failOn)) {
		return "", fmt.Errorf("Parse error on line 1")
	}
	return fmt.Sprintf(`<svg id="d" data-theme="%s"><g id="n"></g></svg>`, theme), nil
}

func (r *recordingRenderer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// writeFile creates path with content, making parent directories.
func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) // #nosec G304 -- test path
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// mustParseFlags parses convert flags or fails the test.
func mustParseFlags(t *testing.T, args ...string) (*convertFlags, []string) {
	t.Helper()
	var stderr bytes.Buffer
	flags, positional, err := parseConvertFlags(args, &stderr)
	if err != nil {
		t.Fatalf("parseConvertFlags(%v) error = %v\n%s", args, err, stderr.String())
	}
	return flags, positional
}

// stubLoader serves fixed page assets.
type stubLoader struct {
	style    string
	template string
}

func (l stubLoader) Load(kind assets.Kind, _ string) (string, error) {
	if kind == assets.Template {
		return l.template, nil
	}
	return l.style, nil
}
