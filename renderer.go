package mermaid

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/alnah/go-mermaid/internal/process"
)

// Renderer turns mermaid source into SVG markup for one theme.
// Implementations must be safe for concurrent use.
type Renderer interface {
	Render(ctx context.Context, source, theme string) (string, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, source, theme string) (string, error)

// Render calls f(ctx, source, theme).
func (f RendererFunc) Render(ctx context.Context, source, theme string) (string, error) {
	return f(ctx, source, theme)
}

// Checker is implemented by renderers that can verify their tooling is
// available before any document is touched.
type Checker interface {
	Check(ctx context.Context) error
}

// Compile-time interface checks.
var (
	_ Renderer      = RendererFunc(nil)
	_ Renderer      = (*CLIRenderer)(nil)
	_ Checker       = (*CLIRenderer)(nil)
	_ Renderer      = (*BrowserRenderer)(nil)
	_ Checker       = (*BrowserRenderer)(nil)
	_ CommandRunner = (*ExecRunner)(nil)
	_ CommandRunner = RunnerFunc(nil)
)

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// RunnerFunc adapts a function to the CommandRunner interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) (string, string, error)

// Run calls f(ctx, name, args...).
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	return f(ctx, name, args...)
}

// defaultWaitDelay bounds how long Run waits for output pipes after the
// process was killed; Chrome children may hold them open.
const defaultWaitDelay = 5 * time.Second

// ExecRunner implements CommandRunner using os/exec.
// The command runs in its own process group, and cancelling ctx kills the
// whole group.
type ExecRunner struct {
	WaitDelay time.Duration // 0 means defaultWaitDelay
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	process.Isolate(cmd)
	cmd.Cancel = process.Cancel(cmd)
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
