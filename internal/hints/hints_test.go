package hints

// Notes:
// - ForBrowserConnect and ForToolNotFound tests cannot use t.Parallel()
//   because they use t.Setenv() and ForBrowserConnect swaps the package-level
//   IsInContainer variable.

import (
	"path/filepath"
	"strings"
	"testing"
)

func stubContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

func clearCI(t *testing.T) {
	t.Helper()
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		t.Setenv(name, "")
	}
}

// ---------------------------------------------------------------------------
// TestForBrowserConnect - Environment Detection
// ---------------------------------------------------------------------------

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name         string
		container    bool
		ci           string
		noSandbox    string
		browserBin   string
		wantContains []string
		wantExcludes []string
		wantEmpty    bool
	}{
		{
			name:         "in CI",
			ci:           "true",
			wantContains: []string{"hint:", "ROD_NO_SANDBOX", "ROD_BROWSER_BIN"},
		},
		{
			name:         "in Docker",
			container:    true,
			wantContains: []string{"ROD_NO_SANDBOX"},
		},
		{
			name:         "sandbox already disabled",
			container:    true,
			noSandbox:    "1",
			wantContains: []string{"ROD_BROWSER_BIN"},
			wantExcludes: []string{"ROD_NO_SANDBOX"},
		},
		{
			name:         "browser bin already set",
			browserBin:   "/usr/bin/chrome",
			wantExcludes: []string{"ROD_BROWSER_BIN", "ROD_NO_SANDBOX"},
			wantEmpty:    true,
		},
		{
			name:       "all configured",
			container:  true,
			ci:         "true",
			noSandbox:  "1",
			browserBin: "/usr/bin/chrome",
			wantEmpty:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubContainer(t, tt.container)
			clearCI(t)
			t.Setenv("CI", tt.ci)
			t.Setenv("ROD_NO_SANDBOX", tt.noSandbox)
			t.Setenv("ROD_BROWSER_BIN", tt.browserBin)

			hint := ForBrowserConnect()

			if tt.wantEmpty && hint != "" {
				t.Errorf("expected empty hint, got %q", hint)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(hint, want) {
					t.Errorf("hint %q missing %q", hint, want)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(hint, exclude) {
					t.Errorf("hint %q should not contain %q", hint, exclude)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestForToolNotFound
// ---------------------------------------------------------------------------

func TestForToolNotFound(t *testing.T) {
	tests := []struct {
		name         string
		binary       string
		envMMDC      string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "bare name suggests install and env var",
			binary:       "mmdc",
			wantContains: []string{"npm install -g @mermaid-js/mermaid-cli", "MERMAID_MMDC", "--renderer browser"},
		},
		{
			name:         "env var already set",
			binary:       "mmdc",
			envMMDC:      "/opt/mmdc",
			wantContains: []string{"npm install"},
			wantExcludes: []string{"MERMAID_MMDC"},
		},
		{
			name:         "explicit path",
			binary:       "/opt/node/bin/mmdc",
			wantContains: []string{"check /opt/node/bin/mmdc exists"},
			wantExcludes: []string{"npm install"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MERMAID_MMDC", tt.envMMDC)

			hint := ForToolNotFound(tt.binary)

			if !strings.HasPrefix(hint, "\n  hint: ") {
				t.Errorf("hint format inconsistent: %q", hint)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(hint, want) {
					t.Errorf("hint %q missing %q", hint, want)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(hint, exclude) {
					t.Errorf("hint %q should not contain %q", hint, exclude)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestForConfigNotFound
// ---------------------------------------------------------------------------

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		paths    []string
		contains string
		excludes string
	}{
		{
			name:     "empty paths",
			paths:    []string{},
			contains: "--config",
			excludes: "create",
		},
		{
			name:     "suggests user config path",
			paths:    []string{"foo.yaml", "/home/me/.config/go-mermaid/foo.yaml"},
			contains: "create /home/me/.config/go-mermaid/foo.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hint := ForConfigNotFound(tt.paths)

			if !strings.Contains(hint, tt.contains) {
				t.Errorf("expected hint to contain %q, got %q", tt.contains, hint)
			}
			if tt.excludes != "" && strings.Contains(hint, tt.excludes) {
				t.Errorf("hint %q should not contain %q", hint, tt.excludes)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestForHighlightStyle
// ---------------------------------------------------------------------------

func TestForHighlightStyle(t *testing.T) {
	t.Parallel()

	if got := ForHighlightStyle(nil); got != "" {
		t.Errorf("ForHighlightStyle(nil) = %q, want empty", got)
	}
	got := ForHighlightStyle([]string{"github", "monokai"})
	if !strings.Contains(got, "available: github, monokai") {
		t.Errorf("ForHighlightStyle() = %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestForPageStyle
// ---------------------------------------------------------------------------

func TestForPageStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		builtin   []string
		assetsDir string
		want      []string
	}{
		{name: "nothing to suggest", want: nil},
		{name: "built-in only", builtin: []string{"auto", "default"}, want: []string{"built-in styles: auto, default"}},
		{
			name:      "with assets directory",
			builtin:   []string{"default"},
			assetsDir: "theme",
			want:      []string{"built-in styles: default; custom styles go in " + filepath.Join("theme", "styles", "<name>.css")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ForPageStyle(tt.builtin, tt.assetsDir)
			if tt.want == nil {
				if got != "" {
					t.Errorf("ForPageStyle() = %q, want empty", got)
				}
				return
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("ForPageStyle() = %q, want to contain %q", got, want)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFormat - Consistency
// ---------------------------------------------------------------------------

func TestFormat_Consistency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hint     string
		contains string
	}{
		{name: "timeout", hint: ForTimeout(), contains: "--timeout"},
		{name: "output directory", hint: ForOutputDirectory(), contains: "parent directory"},
		{name: "render failed", hint: ForRenderFailed(), contains: "mermaid.live"},
		{name: "invalid theme", hint: ForInvalidTheme(), contains: "default, neutral, dark, forest, base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if !strings.HasPrefix(tt.hint, "\n  hint: ") {
				t.Errorf("hint format inconsistent: %q", tt.hint)
			}
			if !strings.Contains(tt.hint, tt.contains) {
				t.Errorf("hint %q missing %q", tt.hint, tt.contains)
			}
		})
	}

	if format("") != "" {
		t.Error("format(\"\") should be empty")
	}
	if formatHints(nil) != "" {
		t.Error("formatHints(nil) should be empty")
	}
}
