// Package mermaid renders mermaid diagrams embedded in Markdown.
//
// It works on a goldmark document tree: every fenced code block tagged
// mermaid is rendered to SVG, once per configured theme, and replaced by
// Diagram nodes that write the SVG inline:
//
//	<div class="remark-mermaid remark-mermaid-default"><svg ...>...</svg></div>
//	<div class="remark-mermaid remark-mermaid-dark"><svg ...>...</svg></div>
//
// Identifiers inside each SVG are prefixed with the class name, theme and a
// per-diagram index, so any number of diagrams can share one page.
//
// # Quick Start
//
// As a goldmark extension:
//
//	ext, err := mermaid.NewExtension(mermaid.WithThemes("default", "dark"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	md := goldmark.New(goldmark.WithExtensions(ext))
//
//	var buf bytes.Buffer
//	if err := mermaid.Convert(ctx, md, source, &buf); err != nil {
//	    log.Fatal(err)
//	}
//
// On an already parsed tree:
//
//	t, err := mermaid.New(mermaid.WithThemes("default", "dark"))
//	doc := goldmark.DefaultParser().Parse(text.NewReader(source))
//	if _, err := t.Transform(ctx, doc, source); err != nil {
//	    log.Fatal(err)
//	}
//
// # Renderers
//
// CLIRenderer (the default) invokes mermaid-cli, which must be on PATH:
//
//	npm install -g @mermaid-js/mermaid-cli
//
// BrowserRenderer runs mermaid.js in a headless Chrome through go-rod and
// needs no Node.js toolchain. Any function can serve as a renderer through
// RendererFunc.
//
// # Errors
//
// A transform either renders every diagram or changes nothing: on failure
// the tree is left as it was given. A missing renderer is reported as
// ErrToolNotFound before the tree is touched; a failing diagram is reported
// as a *RenderError that names its index, theme and source line.
package mermaid
