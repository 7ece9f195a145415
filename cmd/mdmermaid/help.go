package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdmermaid <command> [flags] [args]")
	fmt.Fprintln(w, "       mdmermaid <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert     Convert markdown files to HTML with rendered mermaid diagrams")
	fmt.Fprintln(w, "  doctor      Check that a diagram renderer is available")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdmermaid help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdmermaid convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown files to HTML. Every ```mermaid block is rendered to SVG")
	fmt.Fprintln(w, "once per theme; the page shows the first light theme, and the dark theme")
	fmt.Fprintln(w, "when the reader prefers a dark color scheme.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output .html file or directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto, max 8)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "      --theme <name>        Theme, repeatable or comma-separated (default: default)")
	fmt.Fprintln(w, "                            Built-in: default, neutral, dark, forest, base")
	fmt.Fprintln(w, "  -r, --renderer <s>        mmdc (default), browser, client")
	fmt.Fprintln(w, "      --mmdc <path>         mermaid-cli executable")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-diagram timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --class <name>        Container class (default: remark-mermaid)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "      --title <s>           Page title (\"\" = first heading)")
	fmt.Fprintln(w, "  -s, --style <name>        Page style: default, auto, minimal (default: default)")
	fmt.Fprintln(w, "      --no-style            Omit the page style")
	fmt.Fprintln(w, "      --assets <dir>        Override styles/<name>.css and templates/page.html")
	fmt.Fprintln(w, "      --css <path>          Extra stylesheet file")
	fmt.Fprintln(w, "      --highlight-style <s> Code highlight style (default: github)")
	fmt.Fprintln(w, "      --html-fragment       Write the body only")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug output and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MERMAID_CONFIG, MERMAID_THEMES, MERMAID_MMDC, MERMAID_TIMEOUT,")
	fmt.Fprintln(w, "  MERMAID_WORKERS, MERMAID_RENDERER, MERMAID_OUTPUT_DIR")
	fmt.Fprintln(w, "  Flags override environment, environment overrides the config file.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdmermaid doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that mermaid-cli or Chrome is available for the selected renderer")
	fmt.Fprintln(w, "and that the page template and style load.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Output JSON")
	fmt.Fprintln(w, "  -r, --renderer <s>        Renderer to check: mmdc, browser, client")
	fmt.Fprintln(w, "      --mmdc <path>         mermaid-cli executable")
	fmt.Fprintln(w, "      --assets <dir>        Assets directory to check")
	fmt.Fprintln(w, "  -s, --style <name>        Page style to check")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdmermaid version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdmermaid help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
