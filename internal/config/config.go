package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/goccy/go-yaml"

	"github.com/alnah/go-mermaid/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound     = errors.New("config file not found")
	ErrEmptyConfigName    = errors.New("config name cannot be empty")
	ErrConfigParse        = errors.New("failed to parse config")
	ErrConfigTooLarge     = errors.New("config file exceeds maximum size")
	ErrFieldTooLong       = errors.New("field exceeds maximum length")
	ErrInvalidTheme       = errors.New("invalid theme")
	ErrInvalidBackend     = errors.New("invalid renderer backend")
	ErrInvalidWorkers     = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrUnknownHighlighter = errors.New("unknown highlight style")
)

// Renderer backends.
const (
	BackendMMDC    = "mmdc"    // external mermaid-cli process per diagram
	BackendBrowser = "browser" // in-process headless Chrome
	BackendClient  = "client"  // no server-side render, mermaid.js in the page
)

// Limits.
const (
	MaxInputSize      = 1 << 20 // YAML file size
	MaxThemes         = 16
	MaxWorkers        = 8
	MaxThemeLength    = 50
	MaxClassLength    = 100
	MaxPathLength     = 4096
	MaxURLLength      = 2048 // Browser limit
	MaxTitleLength    = 200
	MaxStyleLength    = 50
	MaxColorLength    = 30 // "transparent", "#ffffff", "rgb(0, 0, 0)"
	MaxBackendLength  = 10
	defaultConfigDir  = "go-mermaid"
	defaultBackground = "transparent"
)

// Config holds all configuration for diagram rendering and page output.
type Config struct {
	Themes    []string       `yaml:"themes"`
	Workers   int            `yaml:"workers"`   // 0 = auto
	ClassName string         `yaml:"className"` // container class (empty = remark-mermaid)
	Renderer  RendererConfig `yaml:"renderer"`
	Input     InputConfig    `yaml:"input"`
	Output    OutputConfig   `yaml:"output"`
	Assets    AssetsConfig   `yaml:"assets"`
}

// RendererConfig selects and tunes the diagram renderer.
type RendererConfig struct {
	Backend         string        `yaml:"backend"`         // mmdc, browser, client (empty = mmdc)
	Binary          string        `yaml:"binary"`          // mmdc executable (empty = mmdc on PATH)
	Background      string        `yaml:"background"`      // mmdc -b value
	Timeout         time.Duration `yaml:"timeout"`         // per diagram (0 = none)
	MermaidConfig   string        `yaml:"mermaidConfig"`   // mmdc -c file
	PuppeteerConfig string        `yaml:"puppeteerConfig"` // mmdc -p file
	ScriptURL       string        `yaml:"scriptURL"`       // mermaid.js for browser and client backends
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines how HTML pages are written.
type OutputConfig struct {
	DefaultDir     string `yaml:"defaultDir"`     // Default output directory (empty = next to source)
	Title          string `yaml:"title"`          // Page title (empty = first heading)
	Style          string `yaml:"style"`          // Page style name (empty = default)
	CSS            string `yaml:"css"`            // Extra stylesheet file
	HighlightStyle string `yaml:"highlightStyle"` // chroma style name (empty = github)
	Fragment       bool   `yaml:"fragment"`       // Body only, no page wrapper
}

// AssetsConfig points at a directory overriding the built-in page assets.
// It holds styles/{name}.css and templates/page.html; missing files fall
// back to the embedded ones.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets only
}

// Validate checks field values and limits.
func (c *Config) Validate() error {
	if len(c.Themes) > MaxThemes {
		return fmt.Errorf("%w: %d themes (max %d)", ErrInvalidTheme, len(c.Themes), MaxThemes)
	}
	for i, theme := range c.Themes {
		if err := validateTheme(theme); err != nil {
			return fmt.Errorf("themes[%d]: %w", i, err)
		}
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers %d (must be 0-%d, 0 means auto)", ErrInvalidWorkers, c.Workers, MaxWorkers)
	}

	if err := validateFieldLength("className", c.ClassName, MaxClassLength); err != nil {
		return err
	}
	if strings.IndexFunc(c.ClassName, unicode.IsSpace) >= 0 {
		return fmt.Errorf("className: must be a single class, got %q", c.ClassName)
	}

	if err := c.Renderer.validate(); err != nil {
		return err
	}
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := c.Output.validate(); err != nil {
		return err
	}
	return validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength)
}

func (r *RendererConfig) validate() error {
	if err := validateFieldLength("renderer.backend", r.Backend, MaxBackendLength); err != nil {
		return err
	}
	switch r.Backend {
	case "", BackendMMDC, BackendBrowser, BackendClient:
	default:
		return fmt.Errorf("%w: %q (must be %s, %s, or %s)", ErrInvalidBackend, r.Backend, BackendMMDC, BackendBrowser, BackendClient)
	}

	if r.Timeout < 0 {
		return fmt.Errorf("%w: renderer.timeout must not be negative, got %v", ErrInvalidTimeout, r.Timeout)
	}

	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"renderer.binary", r.Binary, MaxPathLength},
		{"renderer.background", r.Background, MaxColorLength},
		{"renderer.mermaidConfig", r.MermaidConfig, MaxPathLength},
		{"renderer.puppeteerConfig", r.PuppeteerConfig, MaxPathLength},
		{"renderer.scriptURL", r.ScriptURL, MaxURLLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}
	return nil
}

func (o *OutputConfig) validate() error {
	if err := validateFieldLength("output.defaultDir", o.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.title", o.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.style", o.Style, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.css", o.CSS, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.highlightStyle", o.HighlightStyle, MaxStyleLength); err != nil {
		return err
	}
	if o.HighlightStyle != "" {
		if _, ok := styles.Registry[o.HighlightStyle]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownHighlighter, o.HighlightStyle)
		}
	}
	return nil
}

func validateTheme(theme string) error {
	if theme == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTheme)
	}
	if err := validateFieldLength("theme", theme, MaxThemeLength); err != nil {
		return err
	}
	for _, r := range theme {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains whitespace or control characters", ErrInvalidTheme, theme)
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given:
// the default theme rendered by mmdc on a transparent background.
func DefaultConfig() *Config {
	return &Config{
		Themes: []string{"default"},
		Renderer: RendererConfig{
			Backend:    BackendMMDC,
			Background: defaultBackground,
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decodeStrict(data, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Themes) == 0 {
		cfg.Themes = DefaultConfig().Themes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decodeStrict unmarshals YAML into v, rejecting unknown fields and
// oversized input.
func decodeStrict(data []byte, v any) error {
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), MaxInputSize)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return nil
}

// SearchPaths lists the files a config name resolves to, in lookup order:
// ./name.yaml, ./name.yml, then the same names under the user config
// directory (~/.config/go-mermaid/ on Linux).
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, defaultConfigDir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing SearchPaths entry.
func resolveConfigPath(name string) (string, error) {
	triedPaths := SearchPaths(name)
	for _, p := range triedPaths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
