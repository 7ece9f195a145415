package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	mermaid "github.com/alnah/go-mermaid"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// Compile-time interface implementation check.
var _ HTMLConverter = (*GoldmarkConverter)(nil)

// GoldmarkConverter converts Markdown to an HTML body fragment using
// goldmark with GFM, footnotes and chroma highlighting.
type GoldmarkConverter struct {
	md       goldmark.Markdown
	diagrams bool
}

// NewGoldmarkConverter creates a GoldmarkConverter.
//
// With a non-nil ext, diagrams are rendered server-side and a render failure
// fails the conversion. With a nil ext, fences in language are written as
// <pre class="mermaid"> blocks for mermaid.js to draw in the browser.
func NewGoldmarkConverter(ext *mermaid.Extension, language string) *GoldmarkConverter {
	if language == "" {
		language = mermaid.DefaultLanguage
	}

	extensions := []goldmark.Extender{
		extension.GFM,      // Tables, strikethrough, autolinks, task lists
		extension.Footnote, // [^1] footnotes
		highlighting.NewHighlighting(
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true), // stylesheet comes from HighlightCSS
			),
			highlighting.WithWrapperRenderer(clientWrapper(language)),
		),
	}
	if ext != nil {
		extensions = append(extensions, ext)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)
	return &GoldmarkConverter{md: md, diagrams: ext != nil}
}

// ToHTML converts Markdown content to an HTML body fragment.
// Goldmark has no context support, so conversion runs in a goroutine and
// the caller returns as soon as ctx is done; diagram renders observe ctx.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		var err error
		if c.diagrams {
			err = mermaid.Convert(ctx, c.md, []byte(content), &buf)
		} else {
			err = c.md.Convert([]byte(content), &buf)
		}
		if err != nil {
			done <- result{err: fmt.Errorf("%w: %w", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// clientWrapper writes diagram fences as <pre class="mermaid"> so mermaid.js
// can pick them up, and plain <pre><code> for other unhighlighted blocks.
// Highlighted blocks keep chroma's own wrapper.
func clientWrapper(language string) highlighting.WrapperRenderer {
	return func(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
		if ctx.Highlighted() {
			return
		}

		lang, _ := ctx.Language()
		if strings.EqualFold(strings.TrimSpace(string(lang)), language) {
			if entering {
				_, _ = w.WriteString(`<pre class="mermaid">`)
			} else {
				_, _ = w.WriteString("</pre>\n")
			}
			return
		}

		if entering {
			_, _ = w.WriteString("<pre><code")
			if len(bytes.TrimSpace(lang)) > 0 {
				_, _ = w.WriteString(` class="language-`)
				_, _ = w.Write(util.EscapeHTML(lang))
				_, _ = w.WriteString(`"`)
			}
			_, _ = w.WriteString(">")
			return
		}
		_, _ = w.WriteString("</code></pre>\n")
	}
}
