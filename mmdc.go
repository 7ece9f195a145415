package mermaid

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-mermaid/internal/fileutil"
)

// Defaults for the mermaid-cli renderer.
const (
	DefaultBinary     = "mmdc"
	DefaultBackground = "transparent"

	tempPrefix    = "mermaid"
	inputExt      = "mmd"
	outputExt     = "svg"
	maxStderrSize = 4 << 10
)

// CLIRenderer renders diagrams by invoking the mermaid-cli executable once
// per call:
//
//	mmdc -i <tmp>.mmd -o <tmp>.svg -t <theme> -b <background> [-c cfg] [-p cfg] -q
//
// The zero value is usable; empty fields fall back to their defaults.
// Calls share no mutable state and may run concurrently.
type CLIRenderer struct {
	Binary          string        // executable name or path (default "mmdc")
	Background      string        // -b value (default "transparent")
	TempDir         string        // directory for the .mmd/.svg pair (default os.TempDir())
	ConfigFile      string        // optional mermaid config JSON passed with -c
	PuppeteerConfig string        // optional puppeteer config JSON passed with -p
	Timeout         time.Duration // per-diagram limit, 0 means none

	Runner   CommandRunner
	LookPath func(file string) (string, error)
}

// NewCLIRenderer creates a CLIRenderer with a real command runner.
func NewCLIRenderer() *CLIRenderer {
	return &CLIRenderer{
		Binary:     DefaultBinary,
		Background: DefaultBackground,
		Runner:     &ExecRunner{},
		LookPath:   exec.LookPath,
	}
}

// Check verifies the executable can be found.
func (r *CLIRenderer) Check(_ context.Context) error {
	_, err := r.resolve()
	return err
}

// Render writes source to a temp file, runs the executable and returns the
// SVG it wrote. Both temp files are removed once the process has exited.
func (r *CLIRenderer) Render(ctx context.Context, source, theme string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	bin, err := r.resolve()
	if err != nil {
		return "", err
	}

	pair, err := fileutil.NewTempPair(r.TempDir, tempPrefix, inputExt, outputExt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	defer pair.Cleanup()

	if err := pair.WriteInput(source); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	_, stderr, err := r.runner().Run(ctx, bin, r.args(pair, theme)...)
	if err != nil {
		return "", describeFailure(ctx, err, stderr)
	}

	svg, err := pair.ReadOutput()
	if err != nil {
		return "", fmt.Errorf("%w: no output produced: %v", ErrRenderFailed, err)
	}
	if strings.TrimSpace(svg) == "" {
		return "", fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}
	return svg, nil
}

func (r *CLIRenderer) args(pair *fileutil.TempPair, theme string) []string {
	background := r.Background
	if background == "" {
		background = DefaultBackground
	}

	args := []string{
		"-i", pair.Input,
		"-o", pair.Output,
		"-t", theme,
		"-b", background,
	}
	if r.ConfigFile != "" {
		args = append(args, "-c", r.ConfigFile)
	}
	if r.PuppeteerConfig != "" {
		args = append(args, "-p", r.PuppeteerConfig)
	}
	return append(args, "-q")
}

// resolve finds the executable through LookPath.
func (r *CLIRenderer) resolve() (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	path, err := lookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrToolNotFound, bin, err)
	}
	return path, nil
}

func (r *CLIRenderer) runner() CommandRunner {
	if r.Runner == nil {
		return &ExecRunner{}
	}
	return r.Runner
}

// describeFailure turns a failed run into an ErrRenderFailed error carrying
// the exit status and whatever the tool printed on stderr.
func describeFailure(ctx context.Context, err error, stderr string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailed, ctxErr)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrToolNotFound, err)
	}

	stderr = strings.TrimSpace(stderr)
	if len(stderr) > maxStderrSize {
		stderr = stderr[len(stderr)-maxStderrSize:]
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if stderr != "" {
			return fmt.Errorf("%w: exit status %d\nstderr:\n%s", ErrRenderFailed, ee.ExitCode(), stderr)
		}
		return fmt.Errorf("%w: exit status %d", ErrRenderFailed, ee.ExitCode())
	}
	if stderr != "" {
		return fmt.Errorf("%w: %v\nstderr:\n%s", ErrRenderFailed, err, stderr)
	}
	return fmt.Errorf("%w: %v", ErrRenderFailed, err)
}
