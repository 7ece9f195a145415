package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	mermaid "github.com/alnah/go-mermaid"
	"github.com/alnah/go-mermaid/internal/assets"
	"github.com/alnah/go-mermaid/internal/config"
	"github.com/alnah/go-mermaid/internal/fileutil"
	"github.com/alnah/go-mermaid/internal/hints"
	"github.com/alnah/go-mermaid/internal/pipeline"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput         = errors.New("no input specified")
	ErrReadCSS         = errors.New("failed to read CSS file")
	ErrReadMarkdown    = errors.New("failed to read markdown file")
	ErrWriteHTML       = errors.New("failed to write HTML file")
	ErrCreateOutputDir = errors.New("failed to create output directory")
	ErrUsage           = errors.New("invalid usage")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// conversionParams groups values shared by every file of a batch.
type conversionParams struct {
	cfg       *config.Config
	converter pipeline.HTMLConverter
	pages     *pipeline.PageBuilder
	styles    []string
	client    *pipeline.ClientScript
	workers   int
}

// runConvertCmd parses convert flags, runs the conversion and returns the
// exit code.
func runConvertCmd(ctx context.Context, args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		// pflag already printed the error and usage.
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	setMaxProcs(logger)
	ctx = withLogger(ctx, logger)

	if err := runConvert(ctx, positional, flags, env); err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	logger := loggerFromContext(ctx)
	warnUnknownEnvVars(env.Stderr)

	// Precedence: flags > env > file > defaults
	envCfg := loadEnvConfig()
	cfg, err := loadConfig(flags.common.config, envCfg.ConfigPath, env.Config)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	if err := mergeFlags(flags, cfg); err != nil {
		return err
	}
	cfg.Themes = uniqueThemes(cfg.Themes)
	if err := cfg.Validate(); err != nil {
		return withHint(fmt.Errorf("invalid configuration: %w", err), cfg)
	}
	env.Config = cfg

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, cfg)

	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	logger.Debug("discovered files", "count", len(files), "input", inputPath)

	params, cleanup, err := buildParams(ctx, cfg, flags.page.noStyle, env)
	if err != nil {
		return err
	}
	defer cleanup()

	start := env.Now()
	results := convertBatch(ctx, files, params, env)
	logger.Debug("batch finished", "files", len(files), "workers", params.workers,
		"duration", env.Now().Sub(start).Round(time.Millisecond))

	printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)
	return newBatchError(results)
}

// loadConfig loads the config named by the flag, else by MERMAID_CONFIG,
// else returns a copy of base.
func loadConfig(flagName, envName string, base *config.Config) (*config.Config, error) {
	name := flagName
	if name == "" {
		name = envName
	}

	if name == "" {
		if base == nil {
			return config.DefaultConfig(), nil
		}
		cfg := *base
		cfg.Themes = slices.Clone(base.Themes)
		return &cfg, nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			var searched []string
			if !fileutil.IsFilePath(name) {
				searched = config.SearchPaths(name)
			}
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(searched))
		}
		return nil, withHint(fmt.Errorf("loading config: %w", err), config.DefaultConfig())
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) error {
	if len(flags.renderer.themes) > 0 {
		cfg.Themes = slices.Clone(flags.renderer.themes)
	}
	if flags.renderer.backend != "" {
		cfg.Renderer.Backend = flags.renderer.backend
	}
	if flags.renderer.binary != "" {
		cfg.Renderer.Binary = flags.renderer.binary
	}
	if flags.renderer.className != "" {
		cfg.ClassName = flags.renderer.className
	}
	if flags.renderer.timeout != "" {
		d, err := time.ParseDuration(flags.renderer.timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %q (use a positive duration such as 30s or 2m)", config.ErrInvalidTimeout, flags.renderer.timeout)
		}
		cfg.Renderer.Timeout = d
	}
	if flags.workers != 0 {
		cfg.Workers = flags.workers
	}

	if flags.page.title != "" {
		cfg.Output.Title = flags.page.title
	}
	if flags.page.style != "" {
		cfg.Output.Style = flags.page.style
	}
	if flags.page.assetsDir != "" {
		cfg.Assets.BasePath = flags.page.assetsDir
	}
	if flags.page.css != "" {
		cfg.Output.CSS = flags.page.css
	}
	if flags.page.highlightStyle != "" {
		cfg.Output.HighlightStyle = flags.page.highlightStyle
	}
	if flags.page.fragment {
		cfg.Output.Fragment = true
	}
	return nil
}

// uniqueThemes drops repeated themes, keeping the first occurrence. A page
// shows one rendering per theme, so duplicates would only be hidden copies.
func uniqueThemes(themes []string) []string {
	seen := make(map[string]bool, len(themes))
	out := make([]string, 0, len(themes))
	for _, theme := range themes {
		if !seen[theme] {
			seen[theme] = true
			out = append(out, theme)
		}
	}
	return out
}

// resolveInputPath returns the positional input, else the configured
// default input directory.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	switch {
	case len(args) > 1:
		return "", fmt.Errorf("%w: expected one input, got %d", ErrUsage, len(args))
	case len(args) == 1:
		return args[0], nil
	case cfg.Input.DefaultDir != "":
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir returns the output flag, else the configured default.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// buildParams prepares the converter, stylesheets and renderer shared by a
// batch. The returned cleanup releases the renderer.
func buildParams(ctx context.Context, cfg *config.Config, noStyle bool, env *Environment) (*conversionParams, func(), error) {
	logger := loggerFromContext(ctx)
	noop := func() {}

	className := cfg.ClassName
	if className == "" {
		className = mermaid.DefaultClassName
	}

	loader, err := assetLoader(cfg, env)
	if err != nil {
		return nil, noop, err
	}
	pages, err := loadPageBuilder(loader)
	if err != nil {
		return nil, noop, err
	}

	params := &conversionParams{
		cfg:     cfg,
		pages:   pages,
		workers: mermaid.ResolveConcurrency(cfg.Workers),
	}

	if !noStyle {
		style, err := loadPageStyle(loader, cfg.Output.Style)
		if err != nil {
			return nil, noop, withHint(err, cfg)
		}
		params.styles = append(params.styles, style)
		logger.Debug("page style", "name", styleName(cfg.Output.Style), "assets", cfg.Assets.BasePath)
	}
	params.styles = append(params.styles, pipeline.BaseCSS(className))

	highlight, err := pipeline.HighlightCSS(cfg.Output.HighlightStyle)
	if err != nil {
		return nil, noop, withHint(err, cfg)
	}
	params.styles = append(params.styles, highlight)

	cleanup := noop
	if cfg.Renderer.Backend == config.BackendClient {
		light, dark := pipeline.SplitThemes(cfg.Themes)
		params.converter = pipeline.NewGoldmarkConverter(nil, "")
		params.client = &pipeline.ClientScript{
			URL:        scriptURL(cfg),
			LightTheme: light,
			DarkTheme:  dark,
		}
		logger.Debug("diagrams left to mermaid.js", "light", light, "dark", dark)
	} else {
		renderer, release := newRenderer(cfg, env)
		limited := newLimitedRenderer(renderer, params.workers)
		if err := limited.Check(ctx); err != nil {
			release()
			return nil, noop, withHint(err, cfg)
		}

		ext, err := mermaid.NewExtension(
			mermaid.WithThemes(cfg.Themes...),
			mermaid.WithRenderer(limited),
			mermaid.WithConcurrency(params.workers),
			mermaid.WithClassName(className),
			mermaid.WithLogger(logger),
		)
		if err != nil {
			release()
			return nil, noop, withHint(err, cfg)
		}
		params.converter = pipeline.NewGoldmarkConverter(ext, "")
		params.styles = append(params.styles, pipeline.ThemeCSS(className, cfg.Themes))
		cleanup = release
		logger.Debug("rendering diagrams", "backend", cfg.Renderer.Backend, "themes", cfg.Themes, "workers", params.workers)
	}

	if cfg.Output.CSS != "" {
		data, err := os.ReadFile(cfg.Output.CSS) // #nosec G304 -- user-provided stylesheet
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("%w: %v", ErrReadCSS, err)
		}
		params.styles = append(params.styles, string(data))
	}

	return params, cleanup, nil
}

// assetLoader returns the injected loader, else the configured assets
// directory layered over the built-in assets.
func assetLoader(cfg *config.Config, env *Environment) (assets.Loader, error) {
	if env.AssetLoader != nil {
		return env.AssetLoader, nil
	}
	loader, err := assets.Open(cfg.Assets.BasePath)
	if err != nil {
		return nil, fmt.Errorf("loading assets: %w", err)
	}
	return loader, nil
}

// loadPageBuilder parses the page template from loader.
func loadPageBuilder(loader assets.Loader) (*pipeline.PageBuilder, error) {
	text, err := loader.Load(assets.Template, assets.PageTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading page template: %w", err)
	}
	return pipeline.NewPageBuilder(text)
}

// loadPageStyle loads the named page style, or the default one.
func loadPageStyle(loader assets.Loader, name string) (string, error) {
	css, err := loader.Load(assets.Style, styleName(name))
	if err != nil {
		return "", fmt.Errorf("loading page style: %w", err)
	}
	return css, nil
}

func styleName(name string) string {
	if name == "" {
		return assets.DefaultStyleName
	}
	return name
}

// newRenderer builds the server-side renderer for the configured backend.
// The returned func releases it.
func newRenderer(cfg *config.Config, env *Environment) (mermaid.Renderer, func()) {
	if env.Renderer != nil {
		return env.Renderer, func() {}
	}

	if cfg.Renderer.Backend == config.BackendBrowser {
		r := mermaid.NewBrowserRenderer()
		r.ScriptURL = scriptURL(cfg)
		r.Timeout = cfg.Renderer.Timeout
		return r, func() { _ = r.Close() }
	}

	r := mermaid.NewCLIRenderer()
	if cfg.Renderer.Binary != "" {
		r.Binary = cfg.Renderer.Binary
	}
	if cfg.Renderer.Background != "" {
		r.Background = cfg.Renderer.Background
	}
	r.ConfigFile = cfg.Renderer.MermaidConfig
	r.PuppeteerConfig = cfg.Renderer.PuppeteerConfig
	r.Timeout = cfg.Renderer.Timeout
	return r, func() {}
}

// scriptURL returns the configured mermaid.js location or the default build.
func scriptURL(cfg *config.Config) string {
	if cfg.Renderer.ScriptURL != "" {
		return cfg.Renderer.ScriptURL
	}
	return mermaid.DefaultScriptURL
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, cfg *config.Config) string {
	switch {
	case errors.Is(err, mermaid.ErrToolNotFound):
		if cfg.Renderer.Backend == config.BackendBrowser {
			return hints.ForBrowserConnect()
		}
		return hints.ForToolNotFound(cfg.Renderer.Binary)
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, mermaid.ErrRenderFailed) && strings.Contains(err.Error(), "Failed to launch"):
		return hints.ForBrowserConnect()
	case errors.Is(err, mermaid.ErrRenderFailed), errors.Is(err, mermaid.ErrMalformedOutput):
		return hints.ForRenderFailed()
	case errors.Is(err, config.ErrInvalidTheme), errors.Is(err, mermaid.ErrInvalidTheme):
		return hints.ForInvalidTheme()
	case errors.Is(err, config.ErrUnknownHighlighter), errors.Is(err, pipeline.ErrUnknownStyle):
		return hints.ForHighlightStyle(pipeline.HighlightStyles())
	case errors.Is(err, assets.ErrStyleNotFound):
		return hints.ForPageStyle(assets.StyleNames(), cfg.Assets.BasePath)
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	}
	return ""
}

// withHint appends the hint for err, keeping err in the chain.
func withHint(err error, cfg *config.Config) error {
	if hint := hintFor(err, cfg); hint != "" {
		return fmt.Errorf("%w%s", err, hint)
	}
	return err
}
