package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// rendererFlags holds diagram rendering flags.
type rendererFlags struct {
	themes    []string
	backend   string
	binary    string
	timeout   string
	className string
}

// pageFlags holds HTML page flags.
type pageFlags struct {
	title          string
	style          string
	noStyle        bool
	assetsDir      string
	css            string
	highlightStyle string
	fragment       bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common   commonFlags
	output   string
	workers  int
	renderer rendererFlags
	page     pageFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug output and timing")
}

// addRendererFlags adds diagram rendering flags to a FlagSet.
func addRendererFlags(fs *flag.FlagSet, f *rendererFlags) {
	fs.StringSliceVar(&f.themes, "theme", nil, "mermaid theme, repeatable or comma-separated (default: default)")
	fs.StringVarP(&f.backend, "renderer", "r", "", "diagram renderer: mmdc, browser, client")
	fs.StringVar(&f.binary, "mmdc", "", "mermaid-cli executable name or path")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-diagram timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.className, "class", "", "diagram container class (default: remark-mermaid)")
}

// addPageFlags adds HTML page flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVar(&f.title, "title", "", "page title (\"\" = first heading)")
	fs.StringVarP(&f.style, "style", "s", "", "page style name (default: default)")
	fs.BoolVar(&f.noStyle, "no-style", false, "omit the page style")
	fs.StringVar(&f.assetsDir, "assets", "", "directory with styles/*.css and templates/page.html overrides")
	fs.StringVar(&f.css, "css", "", "extra stylesheet file")
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "code highlight style (default: github)")
	fs.BoolVar(&f.fragment, "html-fragment", false, "write the body only, without the page wrapper")
}

// newConvertFlagSet registers every convert flag on a new FlagSet.
// Completion scripts are generated from the same FlagSet.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")

	addCommonFlags(fs, &f.common)
	addRendererFlags(fs, &f.renderer)
	addPageFlags(fs, &f.page)

	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
// Usage and parse errors are written to stderr.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printConvertUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
