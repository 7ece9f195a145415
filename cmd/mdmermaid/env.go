package main

import (
	"io"
	"os"
	"time"

	mermaid "github.com/alnah/go-mermaid"
	"github.com/alnah/go-mermaid/internal/assets"
	"github.com/alnah/go-mermaid/internal/config"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config // Loaded once per command, shared across files

	// Renderer replaces the configured server-side renderer when non-nil.
	Renderer mermaid.Renderer
	// Runner executes external tools for doctor checks.
	Runner mermaid.CommandRunner
	// AssetLoader replaces the page style and template lookup when non-nil.
	// Otherwise the configured assets directory is searched before the
	// embedded assets.
	AssetLoader assets.Loader
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: config.DefaultConfig(),
		Runner: &mermaid.ExecRunner{},
	}
}
