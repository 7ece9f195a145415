package main

import (
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	mermaid "github.com/alnah/go-mermaid"
	"github.com/alnah/go-mermaid/internal/assets"
	"github.com/alnah/go-mermaid/internal/config"
	"github.com/alnah/go-mermaid/internal/pipeline"
)

// Exit codes for the mdmermaid CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Successful conversion
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or validation
	ExitIO       = 3 // File not found, permission denied
	ExitRenderer = 4 // mmdc/Chrome missing or diagram render failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Renderer errors (exit 4)
	if errors.Is(err, mermaid.ErrToolNotFound) ||
		errors.Is(err, mermaid.ErrRenderFailed) ||
		errors.Is(err, mermaid.ErrMalformedOutput) {
		return ExitRenderer
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrReadCSS) ||
		errors.Is(err, ErrWriteHTML) ||
		errors.Is(err, ErrCreateOutputDir) ||
		errors.Is(err, assets.ErrAssetRead) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoMarkdownFiles) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, flag.ErrHelp) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigTooLarge) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidTheme) ||
		errors.Is(err, config.ErrInvalidBackend) ||
		errors.Is(err, config.ErrInvalidWorkers) ||
		errors.Is(err, config.ErrInvalidTimeout) ||
		errors.Is(err, config.ErrUnknownHighlighter) ||
		errors.Is(err, mermaid.ErrNoThemes) ||
		errors.Is(err, mermaid.ErrInvalidTheme) ||
		errors.Is(err, mermaid.ErrInvalidConcurrency) ||
		errors.Is(err, pipeline.ErrUnknownStyle) ||
		errors.Is(err, pipeline.ErrInvalidTemplate) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrTemplateNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, assets.ErrPathTraversal) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
