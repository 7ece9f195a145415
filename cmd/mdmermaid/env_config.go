package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mermaid/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // MERMAID_CONFIG: config file name or path
	Themes     []string      // MERMAID_THEMES: comma-separated theme list
	Binary     string        // MERMAID_MMDC: mermaid-cli executable
	Timeout    time.Duration // MERMAID_TIMEOUT: per-diagram timeout
	Workers    int           // MERMAID_WORKERS: parallel workers
	Backend    string        // MERMAID_RENDERER: mmdc, browser, client
	OutputDir  string        // MERMAID_OUTPUT_DIR: default output directory
}

// knownEnvVars lists valid MERMAID_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MERMAID_CONFIG":     true,
	"MERMAID_THEMES":     true,
	"MERMAID_MMDC":       true,
	"MERMAID_TIMEOUT":    true,
	"MERMAID_WORKERS":    true,
	"MERMAID_RENDERER":   true,
	"MERMAID_OUTPUT_DIR": true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable numbers and durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("MERMAID_CONFIG"),
		Themes:     splitList(os.Getenv("MERMAID_THEMES")),
		Binary:     os.Getenv("MERMAID_MMDC"),
		Backend:    strings.TrimSpace(os.Getenv("MERMAID_RENDERER")),
		OutputDir:  os.Getenv("MERMAID_OUTPUT_DIR"),
	}

	if timeout := os.Getenv("MERMAID_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("MERMAID_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MERMAID_* variables.
// Helps catch typos like MERMAID_THEME instead of MERMAID_THEMES.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MERMAID_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values over the config file.
// CLI flags are applied afterwards by mergeFlags, which gives:
// CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if len(env.Themes) > 0 {
		cfg.Themes = env.Themes
	}
	if env.Binary != "" {
		cfg.Renderer.Binary = env.Binary
	}
	if env.Backend != "" {
		cfg.Renderer.Backend = env.Backend
	}
	if env.Timeout > 0 {
		cfg.Renderer.Timeout = env.Timeout
	}
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
