package mermaid

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
)

// Concurrency sizing constants.
const (
	// MinConcurrency ensures at least one render runs at a time.
	MinConcurrency = 1

	// MaxConcurrency caps parallel renders; every mmdc call starts its own
	// headless Chrome (~200MB each).
	MaxConcurrency = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// Defaults applied by New.
const (
	DefaultTheme     = "default"
	DefaultClassName = "remark-mermaid"
	DefaultLanguage  = "mermaid"
)

// Option configures a Transformer.
type Option func(*Transformer)

// WithThemes sets the themes each diagram is rendered in, in output order.
// Duplicates are rendered independently.
func WithThemes(themes ...string) Option {
	return func(t *Transformer) {
		t.themes = slices.Clone(themes)
	}
}

// WithRenderer replaces the default mmdc renderer.
func WithRenderer(r Renderer) Option {
	return func(t *Transformer) {
		t.renderer = r
	}
}

// WithConcurrency bounds the number of diagrams rendered at once.
// 0 selects ResolveConcurrency(0); 1 renders serially.
func WithConcurrency(n int) Option {
	return func(t *Transformer) {
		t.concurrency = n
	}
}

// WithClassName sets the class of diagram containers and the root of the
// identifier prefix. Containers get "<name> <name>-<theme>".
func WithClassName(name string) Option {
	return func(t *Transformer) {
		t.className = name
	}
}

// WithLanguage sets the fenced code block language that marks a diagram.
func WithLanguage(lang string) Option {
	return func(t *Transformer) {
		t.language = lang
	}
}

// WithLogger sets the logger used for debug output, and for render failures
// an Extension cannot return to its caller. Nil discards.
func WithLogger(l *log.Logger) Option {
	return func(t *Transformer) {
		t.logger = l
	}
}

// ResolveConcurrency determines how many diagrams render at once.
// Priority: explicit n > GOMAXPROCS-based calculation.
func ResolveConcurrency(n int) int {
	if n > 0 {
		return n
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers.
	available := runtime.GOMAXPROCS(0)
	n = available / cpuDivisor

	if n < MinConcurrency {
		return MinConcurrency
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

// validate checks the configured values once all options are applied.
func (t *Transformer) validate() error {
	if len(t.themes) == 0 {
		return ErrNoThemes
	}
	for _, theme := range t.themes {
		if err := validateTheme(theme); err != nil {
			return err
		}
	}
	if t.concurrency < 0 {
		return fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidConcurrency, t.concurrency)
	}
	if strings.IndexFunc(t.className, unicode.IsSpace) >= 0 {
		return fmt.Errorf("invalid class name %q: contains whitespace", t.className)
	}
	return nil
}

// validateTheme rejects names that cannot be passed as a single argument
// or used as a class suffix.
func validateTheme(theme string) error {
	if theme == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTheme)
	}
	for _, r := range theme {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains whitespace or control characters", ErrInvalidTheme, theme)
		}
	}
	return nil
}
