package pipeline

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteRelativePaths makes relative references in an HTML body resolve
// from outputDir, the directory the page is written to, instead of
// sourceDir, the directory of the Markdown file.
//
// Rewrites:
//   - img[src]: relative paths to images
//   - a[href]: relative file paths; links to .md/.markdown files point at
//     the converted .html page, which keeps the same relative position
//
// Anchors, URLs and absolute paths are left alone. SVG links inside
// rendered diagrams are left alone too. If sourceDir is empty the HTML is
// returned unchanged.
func RewriteRelativePaths(htmlContent, sourceDir, outputDir string) (string, error) {
	if sourceDir == "" {
		return htmlContent, nil
	}

	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}
	absOutputDir := absSourceDir
	if outputDir != "" {
		if absOutputDir, err = filepath.Abs(outputDir); err != nil {
			return "", err
		}
	}

	doc, err := parseFragment(htmlContent)
	if err != nil {
		return "", err
	}

	rewriteNode(doc, absSourceDir, absOutputDir)

	return renderChildren(doc)
}

// parseFragment parses a body fragment and wraps the nodes in a container
// for uniform traversal.
func parseFragment(content string) (*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}

// renderChildren renders the container's children without a wrapper.
func renderChildren(doc *html.Node) (string, error) {
	var buf strings.Builder
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// rewriteNode traverses the DOM and rewrites relative paths.
func rewriteNode(n *html.Node, sourceDir, outputDir string) {
	if n.Type == html.ElementNode {
		// Foreign content: rendered diagrams (svg) and math.
		if n.Namespace != "" {
			return
		}
		switch n.DataAtom {
		case atom.Img:
			rewriteAttr(n, "src", sourceDir, outputDir, false)
		case atom.A:
			rewriteAttr(n, "href", sourceDir, outputDir, true)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, sourceDir, outputDir)
	}
}

// rewriteAttr rewrites a single attribute if it holds a relative path.
func rewriteAttr(n *html.Node, attrName, sourceDir, outputDir string, pages bool) {
	for i, attr := range n.Attr {
		if attr.Namespace != "" || attr.Key != attrName || !isRelativePath(attr.Val) {
			continue
		}

		ref, err := url.Parse(attr.Val)
		if err != nil || ref.Path == "" {
			continue
		}

		// Pages are converted in place or mirrored, so the link keeps its
		// relative position.
		if pages && markdownToHTML(ref.Path) != ref.Path {
			ref.Path = markdownToHTML(path.Clean(ref.Path))
			n.Attr[i].Val = ref.String()
			continue
		}

		target := filepath.Join(sourceDir, filepath.FromSlash(ref.Path))

		rel, err := filepath.Rel(outputDir, target)
		if err != nil {
			continue
		}

		ref.Path = filepath.ToSlash(rel)
		if strings.HasSuffix(attr.Val, "/") && !strings.HasSuffix(ref.Path, "/") {
			ref.Path += "/"
		}
		n.Attr[i].Val = ref.String()
	}
}

// markdownToHTML swaps a .md or .markdown extension for .html.
func markdownToHTML(p string) string {
	switch ext := path.Ext(filepath.ToSlash(p)); ext {
	case ".md", ".markdown":
		return strings.TrimSuffix(p, ext) + ".html"
	}
	return p
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(p string) bool {
	if p == "" {
		return false
	}

	// Anchors, queries and protocol-relative URLs
	if strings.HasPrefix(p, "#") || strings.HasPrefix(p, "?") || strings.HasPrefix(p, "//") {
		return false
	}

	// Any scheme: http, https, file, data, mailto...
	if u, err := url.Parse(p); err != nil || u.Scheme != "" {
		return false
	}

	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return false
	}

	return true
}
