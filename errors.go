package mermaid

import (
	"errors"
	"fmt"

	"github.com/alnah/go-mermaid/internal/svgid"
)

// Sentinel errors for library operations.
var (
	ErrToolNotFound = errors.New("mermaid renderer not found")
	ErrRenderFailed = errors.New("mermaid render failed")

	// ErrMalformedOutput indicates the renderer produced something that is not SVG.
	ErrMalformedOutput = svgid.ErrMalformedOutput

	// Configuration validation errors.
	ErrNoThemes           = errors.New("at least one theme is required")
	ErrInvalidTheme       = errors.New("invalid theme")
	ErrInvalidConcurrency = errors.New("invalid concurrency")

	ErrNilDocument = errors.New("document cannot be nil")
)

// RenderError reports which diagram failed and for which theme.
// It matches both ErrRenderFailed and its cause under errors.Is.
type RenderError struct {
	Index int    // render request index, in document then theme order
	Theme string // theme being rendered
	Line  int    // 1-based line of the opening fence, 0 if unknown
	Err   error
}

func (e *RenderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("diagram %d at line %d (theme %q): %v", e.Index, e.Line, e.Theme, e.Err)
	}
	return fmt.Sprintf("diagram %d (theme %q): %v", e.Index, e.Theme, e.Err)
}

func (e *RenderError) Unwrap() []error {
	return []error{ErrRenderFailed, e.Err}
}
