package pipeline

// Notes:
// - Tests use fixed Unix directories; filepath.Abs keeps them as is, so
//   expected relative paths are deterministic. Skipped on Windows.
// - html.Render writes void elements as <img .../>; assertions match the
//   attribute only.

import (
	"runtime"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRewriteRelativePaths - Main Function Tests
// ---------------------------------------------------------------------------

func TestRewriteRelativePaths(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("fixed Unix paths")
	}

	tests := []struct {
		name         string
		html         string
		sourceDir    string
		outputDir    string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "image resolved from output directory",
			html:         `<img src="./images/logo.png">`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`src="../docs/images/logo.png"`},
		},
		{
			name:         "image in same directory normalized",
			html:         `<img src="./images/logo.png">`,
			sourceDir:    "/site/docs",
			wantContains: []string{`src="images/logo.png"`},
		},
		{
			name:         "nested output directory",
			html:         `<img src="a.png">`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/docs/build",
			wantContains: []string{`src="../a.png"`},
		},
		{
			name:         "parent reference kept relative",
			html:         `<img src="../shared/logo.png">`,
			sourceDir:    "/site/docs",
			wantContains: []string{`src="../shared/logo.png"`},
		},
		{
			name:         "markdown link points at html page",
			html:         `<a href="./other.md">Other</a>`,
			sourceDir:    "/site/docs",
			wantContains: []string{`href="other.html"`},
		},
		{
			name:         "markdown link keeps fragment and query",
			html:         `<a href="guide.markdown?v=2#intro">Guide</a>`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`href="guide.html?v=2#intro"`},
		},
		{
			name:         "markdown link in parent directory",
			html:         `<a href="../index.md">Home</a>`,
			sourceDir:    "/site/docs/sub",
			outputDir:    "/site/out/sub",
			wantContains: []string{`href="../index.html"`},
		},
		{
			name:         "non markdown link keeps extension",
			html:         `<a href="notes.txt">Notes</a>`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`href="../docs/notes.txt"`},
		},
		{
			name:         "directory link keeps trailing slash",
			html:         `<a href="sub/">Sub</a>`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`href="../docs/sub/"`},
		},
		{
			name:         "escaped characters preserved",
			html:         `<img src="my%20image.png">`,
			sourceDir:    "/site/docs",
			wantContains: []string{`src="my%20image.png"`},
		},
		{
			name:         "absolute path unchanged",
			html:         `<img src="/abs/logo.png">`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`src="/abs/logo.png"`},
		},
		{
			name:         "URLs unchanged",
			html:         `<img src="https://example.com/logo.png"><img src="data:image/png;base64,ABC123"><a href="mailto:me@example.com">m</a>`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`src="https://example.com/logo.png"`, `src="data:image/png;base64,ABC123"`, `href="mailto:me@example.com"`},
		},
		{
			name:         "protocol-relative URL unchanged",
			html:         `<img src="//cdn.example.com/logo.png">`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`src="//cdn.example.com/logo.png"`},
		},
		{
			name:         "anchor link unchanged",
			html:         `<a href="#section">Link</a>`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`href="#section"`},
		},
		{
			name:         "script and video not rewritten",
			html:         `<script src="./script.js"></script><video src="./video.mp4"></video>`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`src="./script.js"`, `src="./video.mp4"`},
		},
		{
			name:         "links inside diagrams not rewritten",
			html:         `<div class="remark-mermaid"><svg><a href="other.md"><text>x</text></a></svg></div>`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`href="other.md"`},
			wantExcludes: []string{`other.html`},
		},
		{
			name:         "empty sourceDir returns unchanged",
			html:         `<img src="./logo.png">`,
			sourceDir:    "",
			outputDir:    "/site/out",
			wantContains: []string{`src="./logo.png"`},
		},
		{
			name:         "empty src attribute unchanged",
			html:         `<img src="">`,
			sourceDir:    "/site/docs",
			wantContains: []string{`src=""`},
		},
		{
			name:         "other attributes preserved",
			html:         `<img class="logo" src="logo.png" alt="Logo">`,
			sourceDir:    "/site/docs",
			outputDir:    "/site/out",
			wantContains: []string{`class="logo"`, `alt="Logo"`, `src="../docs/logo.png"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RewriteRelativePaths(tt.html, tt.sourceDir, tt.outputDir)
			if err != nil {
				t.Fatalf("RewriteRelativePaths() error = %v", err)
			}

			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("RewriteRelativePaths() = %q, want to contain %q", got, want)
				}
			}

			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("RewriteRelativePaths() = %q, should not contain %q", got, exclude)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRewriteRelativePaths - Fragment Round Trip
// ---------------------------------------------------------------------------

func TestRewriteRelativePaths_NoWrapper(t *testing.T) {
	t.Parallel()

	got, err := RewriteRelativePaths(`<p>text</p><p>more</p>`, "docs", "")
	if err != nil {
		t.Fatalf("RewriteRelativePaths() error = %v", err)
	}
	if got != `<p>text</p><p>more</p>` {
		t.Errorf("RewriteRelativePaths() = %q, want fragment unchanged", got)
	}
}

// ---------------------------------------------------------------------------
// TestIsRelativePath
// ---------------------------------------------------------------------------

func TestIsRelativePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"./image.png", true},
		{"images/logo.png", true},
		{"../parent.png", true},
		{"page.md#top", true},

		{"", false},
		{"http://example.com/img.png", false},
		{"https://example.com/img.png", false},
		{"file:///abs/path.png", false},
		{"data:image/png;base64,ABC", false},
		{"mailto:me@example.com", false},
		{"//cdn.example.com/img.png", false},
		{"#anchor", false},
		{"?page=2", false},
		{"/absolute/path.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := isRelativePath(tt.path); got != tt.want {
				t.Errorf("isRelativePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMarkdownToHTML
// ---------------------------------------------------------------------------

func TestMarkdownToHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"guide.md", "guide.html"},
		{"dir/notes.markdown", "dir/notes.html"},
		{"image.png", "image.png"},
		{"README", "README"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := markdownToHTML(tt.in); got != tt.want {
				t.Errorf("markdownToHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
