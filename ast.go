package mermaid

import (
	"html"
	"strconv"

	"github.com/yuin/goldmark/ast"
)

// Node kinds added to the goldmark tree.
var (
	KindPlaceholder = ast.NewNodeKind("MermaidPlaceholder")
	KindDiagram     = ast.NewNodeKind("MermaidDiagram")
)

// Placeholder marks where the rendering of one diagram for one theme will
// land. Placeholders only exist while a transform is in flight.
type Placeholder struct {
	ast.BaseBlock
	Index int
	Theme string

	owner *run
}

// Kind implements ast.Node.
func (n *Placeholder) Kind() ast.NodeKind {
	return KindPlaceholder
}

// Dump implements ast.Node.
func (n *Placeholder) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Index": strconv.Itoa(n.Index),
		"Theme": n.Theme,
	}, nil)
}

// Diagram is a rendered diagram: SVG markup for one theme, already
// namespaced so it can sit next to other diagrams in the same page.
type Diagram struct {
	ast.BaseBlock
	Index     int
	Theme     string
	ClassName string
	SVG       string
}

// Kind implements ast.Node.
func (n *Diagram) Kind() ast.NodeKind {
	return KindDiagram
}

// Dump implements ast.Node.
func (n *Diagram) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Index":     strconv.Itoa(n.Index),
		"Theme":     n.Theme,
		"ClassName": n.ClassName,
	}, nil)
}

// HTML returns the container markup:
//
//	<div class="remark-mermaid remark-mermaid-dark"><svg ...>...</svg></div>
func (n *Diagram) HTML() string {
	class := html.EscapeString(n.ClassName)
	theme := html.EscapeString(n.Theme)
	return `<div class="` + class + " " + class + "-" + theme + `">` + n.SVG + `</div>`
}
