package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"slices"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/alnah/go-mermaid/internal/assets"
)

// Sentinel errors for page assembly.
var (
	ErrPageRender      = errors.New("page template rendering failed")
	ErrInvalidTemplate = errors.New("invalid page template")
	ErrUnknownStyle    = errors.New("unknown highlight style")
)

// DarkTheme is the theme shown when the reader prefers a dark color scheme.
const DarkTheme = "dark"

// DefaultHighlightStyle is the chroma style used when none is configured.
const DefaultHighlightStyle = "github"

// diagramCSS keeps wide diagrams inside the page.
const diagramCSS = ".%s svg{max-width:100%%;height:auto}\n"

// Page describes one HTML output document.
type Page struct {
	Title    string
	Body     string        // HTML body fragment
	Styles   []string      // stylesheets, in cascade order
	Client   *ClientScript // non-nil when mermaid.js draws diagrams in the browser
	Fragment bool          // body only, no document wrapper
}

// ClientScript loads mermaid.js and picks a theme from the reader's color
// scheme preference.
type ClientScript struct {
	URL        string
	LightTheme string
	DarkTheme  string
}

// PageBuilder assembles HTML documents from converted Markdown.
type PageBuilder struct {
	tmpl *template.Template
}

// NewPageBuilder parses a page template. The text must define the "page"
// and "fragment" templates, which receive Title, Body, Styles and Client.
func NewPageBuilder(text string) (*PageBuilder, error) {
	tmpl, err := template.New("html").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	for _, name := range []string{"page", "fragment"} {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("%w: %q is not defined", ErrInvalidTemplate, name)
		}
	}
	return &PageBuilder{tmpl: tmpl}, nil
}

// DefaultPageBuilder returns a PageBuilder for the built-in page template.
func DefaultPageBuilder() *PageBuilder {
	text, err := assets.Builtin.Load(assets.Template, assets.PageTemplateName)
	if err != nil {
		panic(err)
	}
	b, err := NewPageBuilder(text)
	if err != nil {
		panic(err)
	}
	return b
}

// Build renders p as a standalone document, or as a fragment when
// p.Fragment is set. Stylesheets are sanitized before embedding.
func (b *PageBuilder) Build(ctx context.Context, p *Page) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data := struct {
		Title  string
		Body   template.HTML
		Styles []template.CSS
		Client *ClientScript
	}{
		Title:  p.Title,
		Body:   template.HTML(p.Body), // #nosec G203 -- goldmark output, raw HTML disabled
		Client: p.Client,
	}
	for _, css := range p.Styles {
		if strings.TrimSpace(css) == "" {
			continue
		}
		data.Styles = append(data.Styles, template.CSS(sanitizeCSS(css))) // #nosec G203 -- sanitized
	}

	name := "page"
	if p.Fragment {
		name = "fragment"
	}

	var buf bytes.Buffer
	if err := b.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.String(), nil
}

// BaseCSS returns the sizing rule for diagrams in className.
func BaseCSS(className string) string {
	return fmt.Sprintf(diagramCSS, cssIdent(className))
}

// ThemeCSS returns the rules that show one rendering per diagram: the first
// light theme by default and the dark theme under prefers-color-scheme: dark.
// Returns "" when every rendering may stay visible.
func ThemeCSS(className string, themes []string) string {
	light, dark := SplitThemes(themes)

	var hidden []string
	for _, theme := range themes {
		if theme != light && !slices.Contains(hidden, theme) {
			hidden = append(hidden, theme)
		}
	}
	if len(hidden) == 0 {
		return ""
	}

	var b strings.Builder
	for _, theme := range hidden {
		fmt.Fprintf(&b, ".%s{display:none}\n", themeClass(className, theme))
	}
	if dark != light {
		fmt.Fprintf(&b, "@media (prefers-color-scheme: dark){.%s{display:none}.%s{display:block}}\n",
			themeClass(className, light), themeClass(className, dark))
	}
	return b.String()
}

// SplitThemes picks the light theme (first theme other than dark, else the
// first theme) and the dark theme (dark when listed, else the light theme).
func SplitThemes(themes []string) (light, dark string) {
	if len(themes) == 0 {
		return "", ""
	}
	light = themes[0]
	for _, theme := range themes {
		if theme != DarkTheme {
			light = theme
			break
		}
	}
	dark = light
	if slices.Contains(themes, DarkTheme) {
		dark = DarkTheme
	}
	return light, dark
}

// HighlightCSS returns the chroma stylesheet for the named style.
// An empty name selects DefaultHighlightStyle.
func HighlightCSS(name string) (string, error) {
	if name == "" {
		name = DefaultHighlightStyle
	}
	style, ok := styles.Registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}

	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("writing %s stylesheet: %w", name, err)
	}
	return buf.String(), nil
}

// HighlightStyles returns the available chroma style names.
func HighlightStyles() []string {
	return styles.Names()
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// titlePattern matches the first h1 element.
var titlePattern = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)

// htmlTagPattern matches HTML tags for stripping from heading text.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// ExtractTitle returns the text of the first h1 in an HTML body, or "".
func ExtractTitle(body string) string {
	m := titlePattern.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return stripHTMLTags(m[1])
}

// stripHTMLTags removes HTML tags from a string, decodes HTML entities,
// and trims whitespace.
func stripHTMLTags(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

func themeClass(className, theme string) string {
	return cssIdent(className + "-" + theme)
}

// cssIdent escapes s for use as a CSS class selector.
func cssIdent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r == '_' || r == '-' || r >= 0x80 ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 || (i == 1 && s[0] == '-') {
				fmt.Fprintf(&b, "\\%x ", r)
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
