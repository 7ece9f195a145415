// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mermaid/internal/fileutil"
)

// BuiltinThemes lists the themes shipped with mermaid.
var BuiltinThemes = []string{"default", "neutral", "dark", "forest", "base"}

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// inCI reports whether a known CI provider variable is set.
func inCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForToolNotFound returns hints for a missing mermaid-cli binary.
// Suggests installing it, pointing MERMAID_MMDC at it, or switching backend.
func ForToolNotFound(binary string) string {
	hints := []string{"install it with: npm install -g @mermaid-js/mermaid-cli"}

	if binary != "" && filepath.Base(binary) != binary {
		hints[0] = "check " + binary + " exists and is executable"
	} else if os.Getenv("MERMAID_MMDC") == "" {
		hints = append(hints, "or set MERMAID_MMDC to its path")
	}
	hints = append(hints, "or use --renderer browser (Chrome only) or --renderer client")

	return formatHints(hints)
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
// mmdc drives its own Chrome, so the same hints apply to both backends.
func ForBrowserConnect() string {
	var hints []string

	if (inCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow renders.
func ForTimeout() string {
	return format("for large diagrams, use --timeout flag")
}

// ForRenderFailed returns a hint for diagrams the renderer rejected.
func ForRenderFailed() string {
	return format("check the diagram syntax at https://mermaid.live")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-mermaid/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepath.ToSlash(p), "/go-mermaid/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForInvalidTheme returns hints listing the built-in mermaid themes.
func ForInvalidTheme() string {
	return format("built-in themes: " + strings.Join(BuiltinThemes, ", "))
}

// ForHighlightStyle returns hints for unknown highlight styles.
func ForHighlightStyle(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForPageStyle returns hints for unknown page styles. A configured assets
// directory is searched before the built-in styles.
func ForPageStyle(builtin []string, assetsDir string) string {
	var hints []string
	if len(builtin) > 0 {
		hints = append(hints, "built-in styles: "+strings.Join(builtin, ", "))
	}
	if assetsDir != "" {
		hints = append(hints, "custom styles go in "+filepath.Join(assetsDir, "styles", "<name>.css"))
	}
	return formatHints(hints)
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
