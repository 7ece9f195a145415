package mermaid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark/ast"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mermaid/internal/svgid"
)

// Transformer replaces mermaid code blocks in a goldmark tree with their
// SVG renderings, one per configured theme.
// A Transformer holds no per-document state and is safe for concurrent use.
type Transformer struct {
	themes      []string
	renderer    Renderer
	concurrency int
	className   string
	language    string
	logger      *log.Logger
}

// Result is the outcome of TransformAsync.
type Result struct {
	Node ast.Node
	Err  error
}

// request is one diagram to render in one theme.
type request struct {
	Index  int
	Source string
	Theme  string
	Line   int
}

// block is a discovered diagram block and the placeholders standing in for it.
type block struct {
	node         *ast.FencedCodeBlock
	parent       ast.Node
	source       string
	line         int
	placeholders []*Placeholder
}

// run is the state of one Transform call.
type run struct {
	blocks   []*block
	requests []request
}

// New creates a Transformer with default configuration.
// Use options to customize behavior (e.g., WithThemes, WithRenderer).
func New(opts ...Option) (*Transformer, error) {
	t := &Transformer{
		themes:    []string{DefaultTheme},
		className: DefaultClassName,
		language:  DefaultLanguage,
	}

	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	if t.renderer == nil {
		t.renderer = NewCLIRenderer()
	}
	if t.className == "" {
		t.className = DefaultClassName
	}
	if t.language == "" {
		t.language = DefaultLanguage
	}
	t.concurrency = ResolveConcurrency(t.concurrency)
	if t.logger == nil {
		t.logger = log.New(io.Discard)
	}

	return t, nil
}

// Themes returns a copy of the configured themes.
func (t *Transformer) Themes() []string {
	return slices.Clone(t.themes)
}

// Transform renders every diagram block of doc and splices the results into
// the tree in place of the block: for each block, one Diagram node per
// theme, in theme order. source is the text doc was parsed from.
//
// A document without diagrams is returned untouched and the renderer is
// never called. On failure the tree is left exactly as it was given and the
// error is returned; render failures are *RenderError values.
func (t *Transformer) Transform(ctx context.Context, doc ast.Node, source []byte) (ast.Node, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if err := ctx.Err(); err != nil {
		return doc, err
	}

	blocks := t.discover(doc, source)
	t.logger.Debug("discovered mermaid blocks", "blocks", len(blocks), "themes", len(t.themes))
	if len(blocks) == 0 {
		return doc, nil
	}

	if c, ok := t.renderer.(Checker); ok {
		if err := c.Check(ctx); err != nil {
			if !errors.Is(err, ErrToolNotFound) {
				err = fmt.Errorf("%w: %v", ErrToolNotFound, err)
			}
			return doc, err
		}
	}

	r := t.plan(blocks)

	svgs, err := t.render(ctx, r.requests)
	if err != nil {
		r.restore()
		return doc, err
	}

	t.substitute(doc, r, svgs)
	return doc, nil
}

// TransformAsync runs Transform in a new goroutine. The returned channel
// receives exactly one Result and is then closed.
func (t *Transformer) TransformAsync(ctx context.Context, doc ast.Node, source []byte) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		node, err := t.Transform(ctx, doc, source)
		ch <- Result{Node: node, Err: err}
	}()
	return ch
}

// discover collects diagram blocks in document order without touching the tree.
func (t *Transformer) discover(doc ast.Node, source []byte) []*block {
	var blocks []*block
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		cb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if cb.Parent() != nil && string(cb.Language(source)) == t.language {
			blocks = append(blocks, &block{
				node:   cb,
				parent: cb.Parent(),
				source: blockSource(cb, source),
				line:   blockLine(cb, source),
			})
		}
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// plan assigns indexes in document then theme order and swaps every block
// for its placeholders.
func (t *Transformer) plan(blocks []*block) *run {
	r := &run{
		blocks:   blocks,
		requests: make([]request, 0, len(blocks)*len(t.themes)),
	}

	for _, b := range blocks {
		for _, theme := range t.themes {
			req := request{
				Index:  len(r.requests),
				Source: b.source,
				Theme:  theme,
				Line:   b.line,
			}
			r.requests = append(r.requests, req)

			ph := &Placeholder{Index: req.Index, Theme: theme, owner: r}
			b.parent.InsertBefore(b.parent, b.node, ph)
			b.placeholders = append(b.placeholders, ph)
		}
		b.parent.RemoveChild(b.parent, b.node)
	}
	return r
}

// render runs every request through the renderer and the namespacer.
// The first failure cancels the others.
func (t *Transformer) render(ctx context.Context, reqs []request) ([]string, error) {
	svgs := make([]string, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	for _, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			svg, err := t.renderer.Render(gctx, req.Source, req.Theme)
			if err != nil {
				return &RenderError{Index: req.Index, Theme: req.Theme, Line: req.Line, Err: err}
			}

			svg, err = svgid.Prefix(svg, t.prefix(req))
			if err != nil {
				return &RenderError{Index: req.Index, Theme: req.Theme, Line: req.Line, Err: err}
			}

			svgs[req.Index] = svg
			t.logger.Debug("rendered diagram",
				"index", req.Index, "theme", req.Theme, "line", req.Line,
				"duration", time.Since(start).Round(time.Millisecond))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return svgs, nil
}

// substitute replaces every placeholder of r with its rendered diagram.
func (t *Transformer) substitute(doc ast.Node, r *run, svgs []string) {
	var found []*Placeholder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if ph, ok := n.(*Placeholder); ok && ph.owner == r {
			found = append(found, ph)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, ph := range found {
		parent := ph.Parent()
		parent.ReplaceChild(parent, ph, &Diagram{
			Index:     ph.Index,
			Theme:     ph.Theme,
			ClassName: t.className,
			SVG:       svgs[ph.Index],
		})
	}
	t.logger.Debug("substituted diagrams", "count", len(found))
}

// prefix is the identifier namespace of one rendering.
func (t *Transformer) prefix(req request) string {
	return fmt.Sprintf("%s-%s-%d-", svgid.SanitizeID(t.className), svgid.SanitizeID(req.Theme), req.Index)
}

// restore puts every original block back where its placeholders are.
func (r *run) restore() {
	for _, b := range r.blocks {
		if len(b.placeholders) == 0 {
			continue
		}
		b.parent.InsertBefore(b.parent, b.placeholders[0], b.node)
		for _, ph := range b.placeholders {
			b.parent.RemoveChild(b.parent, ph)
		}
		b.placeholders = nil
	}
}

// blockSource concatenates the lines of a code block.
func blockSource(cb *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := cb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// blockLine returns the 1-based line of the opening fence.
func blockLine(cb *ast.FencedCodeBlock, source []byte) int {
	if cb.Info != nil && cb.Info.Segment.Start <= len(source) {
		return bytes.Count(source[:cb.Info.Segment.Start], []byte("\n")) + 1
	}
	if cb.Lines().Len() > 0 && cb.Lines().At(0).Start <= len(source) {
		// Content starts on the line after the fence.
		return bytes.Count(source[:cb.Lines().At(0).Start], []byte("\n"))
	}
	return 0
}
