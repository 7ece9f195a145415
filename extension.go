package mermaid

import (
	"bytes"
	"context"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Priorities used when registering with goldmark.
const (
	transformerPriority = 100
	rendererPriority    = 100
)

var (
	ctxKey = parser.NewContextKey()
	errKey = parser.NewContextKey()
)

// Compile-time interface checks.
var (
	_ goldmark.Extender     = (*Extension)(nil)
	_ parser.ASTTransformer = (*astTransformer)(nil)
	_ renderer.NodeRenderer = (*HTMLRenderer)(nil)
)

// Extension plugs a Transformer into goldmark: diagrams are rendered while
// the document is parsed and written out by HTMLRenderer.
//
// goldmark's Convert cannot return a render failure; the package-level
// Convert does. Callers driving goldmark directly must pass
// NewParserContext and check ErrorFrom. Otherwise the failure is only
// logged at error level and the untouched code blocks are written out.
//
//	ext, err := mermaid.NewExtension(mermaid.WithThemes("default", "dark"))
//	md := goldmark.New(goldmark.WithExtensions(ext))
//	err = mermaid.Convert(ctx, md, source, w)
type Extension struct {
	transformer *Transformer
}

// NewExtension creates an Extension backed by New(opts...).
func NewExtension(opts ...Option) (*Extension, error) {
	t, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return &Extension{transformer: t}, nil
}

// Transformer returns the underlying Transformer.
func (e *Extension) Transformer() *Transformer {
	return e.transformer
}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&astTransformer{t: e.transformer}, transformerPriority),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(NewHTMLRenderer(), rendererPriority),
	))
}

// NewParserContext returns a parser context carrying ctx to the transform.
// Pass it with parser.WithContext and read the outcome with ErrorFrom.
func NewParserContext(ctx context.Context) parser.Context {
	pc := parser.NewContext()
	pc.Set(ctxKey, ctx)
	return pc
}

// ErrorFrom returns the error recorded by the transform during a parse, if any.
func ErrorFrom(pc parser.Context) error {
	if err, ok := pc.Get(errKey).(error); ok {
		return err
	}
	return nil
}

// Convert converts source with md and writes the output to w only when
// every diagram rendered. md must have been built with an Extension.
func Convert(ctx context.Context, md goldmark.Markdown, source []byte, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pc := NewParserContext(ctx)

	var buf bytes.Buffer
	if err := md.Convert(source, &buf, parser.WithContext(pc)); err != nil {
		return err
	}
	if err := ErrorFrom(pc); err != nil {
		return err
	}

	_, err := buf.WriteTo(w)
	return err
}

// astTransformer adapts Transformer to parser.ASTTransformer.
type astTransformer struct {
	t *Transformer
}

func (a *astTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	ctx, tracked := pc.Get(ctxKey).(context.Context)
	if !tracked {
		ctx = context.Background()
	}
	if _, err := a.t.Transform(ctx, doc, reader.Source()); err != nil {
		pc.Set(errKey, err)
		if !tracked {
			a.t.logger.Error("diagram rendering failed, code blocks kept", "err", err)
		}
	}
}

// HTMLRenderer writes Diagram nodes as raw markup. Leftover placeholders
// render as nothing.
type HTMLRenderer struct{}

// NewHTMLRenderer creates the node renderer for the diagram kinds.
func NewHTMLRenderer() renderer.NodeRenderer {
	return &HTMLRenderer{}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *HTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagram, r.renderDiagram)
	reg.Register(KindPlaceholder, r.renderPlaceholder)
}

func (r *HTMLRenderer) renderDiagram(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	d := n.(*Diagram)
	_, _ = w.WriteString(d.HTML())
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}

func (r *HTMLRenderer) renderPlaceholder(_ util.BufWriter, _ []byte, _ ast.Node, _ bool) (ast.WalkStatus, error) {
	return ast.WalkSkipChildren, nil
}
