package assets

// Notes:
// - Built-in styles are asserted by a marker rule each one must carry;
//   their exact text is free to change.
// - The page template is parsed here with html/template to catch syntax
//   errors at test time rather than when the first page is built.

import (
	"errors"
	"html/template"
	"slices"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestBuiltin - Styles
// ---------------------------------------------------------------------------

func TestBuiltin_Styles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		style        string
		wantContains []string
		wantErr      error
	}{
		{name: "default", style: "default", wantContains: []string{"max-width: 60rem", "font-family"}},
		{name: "auto follows color scheme", style: "auto", wantContains: []string{"@media (prefers-color-scheme: dark)", "background: #0d1117"}},
		{name: "minimal", style: "minimal", wantContains: []string{"overflow-x: auto"}},
		{name: "unknown", style: "nope", wantErr: ErrStyleNotFound},
		{name: "traversal", style: "../default", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Builtin.Load(Style, tt.style)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Load(Style, %q) error = %v, want %v", tt.style, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load(Style, %q) error = %v", tt.style, err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Load(Style, %q) missing %q", tt.style, want)
				}
			}
		})
	}
}

func TestBuiltin_StylesHaveNoClosingTag(t *testing.T) {
	t.Parallel()

	for _, name := range StyleNames() {
		css, err := Builtin.Load(Style, name)
		if err != nil {
			t.Fatalf("Load(Style, %q) error = %v", name, err)
		}
		if strings.Contains(css, "</") {
			t.Errorf("style %q contains \"</\"", name)
		}
	}
}

// ---------------------------------------------------------------------------
// TestStyleNames
// ---------------------------------------------------------------------------

func TestStyleNames(t *testing.T) {
	t.Parallel()

	got := StyleNames()
	want := []string{"auto", "default", "minimal"}
	if !slices.Equal(got, want) {
		t.Errorf("StyleNames() = %v, want %v", got, want)
	}
	if !slices.Contains(got, DefaultStyleName) {
		t.Errorf("StyleNames() missing %q", DefaultStyleName)
	}
}

// ---------------------------------------------------------------------------
// TestBuiltin - Page Template
// ---------------------------------------------------------------------------

func TestBuiltin_PageTemplate(t *testing.T) {
	t.Parallel()

	text, err := Builtin.Load(Template, PageTemplateName)
	if err != nil {
		t.Fatalf("Load(Template, %q) error = %v", PageTemplateName, err)
	}

	tmpl, err := template.New("html").Parse(text)
	if err != nil {
		t.Fatalf("page template does not parse: %v", err)
	}
	for _, name := range []string{"page", "fragment", "styles", "scripts"} {
		if tmpl.Lookup(name) == nil {
			t.Errorf("page template does not define %q", name)
		}
	}
}

func TestBuiltin_TemplateNotFound(t *testing.T) {
	t.Parallel()

	_, err := Builtin.Load(Template, "cover")
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Load(Template, cover) error = %v, want ErrTemplateNotFound", err)
	}
}
