// Package svgid namespaces the identifiers of a rendered SVG image so several
// images can be inlined in one HTML document without their ids colliding.
//
// Every element id is prefixed and every reference to it is rewritten:
//   - url(#id) inside any attribute value (fill, stroke, marker-end, style...)
//   - href and xlink:href values of the form #id
//   - aria-labelledby and aria-describedby id lists
//   - url(#id) and #id selectors inside <style> elements
//
// References are matched on whole identifiers, never on substrings, so an id
// that is a prefix of another id (arrow, arrowhead) is rewritten independently.
package svgid

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrMalformedOutput indicates the input could not be read as SVG markup.
var ErrMalformedOutput = errors.New("malformed SVG output")

// Prefix rewrites every identifier in svg to prefix+identifier and returns the
// image as an embeddable fragment: top-level comments, doctypes and XML
// declarations are dropped.
func Prefix(svg, prefix string) (string, error) {
	roots, err := parseFragment(svg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if !containsSVG(roots) {
		return "", fmt.Errorf("%w: no <svg> element", ErrMalformedOutput)
	}

	if prefix != "" {
		ids := make(map[string]string)
		for _, n := range roots {
			renameIDs(n, prefix, ids)
		}
		if len(ids) > 0 {
			for _, n := range roots {
				rewriteRefs(n, ids)
			}
		}
	}

	return renderFragment(roots)
}

// IDs returns every element id in svg, in document order.
func IDs(svg string) ([]string, error) {
	roots, err := parseFragment(svg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	var ids []string
	for _, n := range roots {
		walk(n, func(el *html.Node) {
			if v, ok := attr(el, "id"); ok && v != "" {
				ids = append(ids, v)
			}
		})
	}
	return ids, nil
}

// SanitizeID maps s to a string safe to embed in an identifier: anything
// outside [A-Za-z0-9_-] becomes '_'.
func SanitizeID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isASCIIIdentByte(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// parseFragment parses markup in a <body> context and keeps element roots only.
func parseFragment(content string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, err
	}

	roots := nodes[:0]
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			roots = append(roots, n)
		}
	}
	return roots, nil
}

func renderFragment(roots []*html.Node) (string, error) {
	var buf strings.Builder
	for _, n := range roots {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
	}
	return buf.String(), nil
}

func containsSVG(roots []*html.Node) bool {
	found := false
	for _, n := range roots {
		walk(n, func(el *html.Node) {
			if el.Data == "svg" {
				found = true
			}
		})
	}
	return found
}

// renameIDs prefixes every id attribute and records old -> new in ids.
func renameIDs(n *html.Node, prefix string, ids map[string]string) {
	walk(n, func(el *html.Node) {
		for i, a := range el.Attr {
			if a.Namespace != "" || a.Key != "id" || a.Val == "" {
				continue
			}
			renamed := prefix + a.Val
			ids[a.Val] = renamed
			el.Attr[i].Val = renamed
		}
	})
}

// rewriteRefs points every reference at the renamed identifiers.
func rewriteRefs(n *html.Node, ids map[string]string) {
	walk(n, func(el *html.Node) {
		for i, a := range el.Attr {
			switch {
			case a.Key == "id" && a.Namespace == "":
			case a.Key == "href":
				el.Attr[i].Val = fragmentRef(a.Val, ids)
			case a.Key == "aria-labelledby" || a.Key == "aria-describedby":
				el.Attr[i].Val = idList(a.Val, ids)
			case strings.Contains(a.Val, "url("):
				el.Attr[i].Val = rewriteCSS(a.Val, ids, false)
			}
		}
		if el.Data == "style" {
			for c := el.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					c.Data = rewriteCSS(c.Data, ids, true)
				}
			}
		}
	})
}

// fragmentRef rewrites a "#id" reference; anything else is returned as is.
func fragmentRef(ref string, ids map[string]string) string {
	if !strings.HasPrefix(ref, "#") {
		return ref
	}
	if renamed, ok := ids[ref[1:]]; ok {
		return "#" + renamed
	}
	return ref
}

func idList(list string, ids map[string]string) string {
	fields := strings.Fields(list)
	for i, f := range fields {
		if renamed, ok := ids[f]; ok {
			fields[i] = renamed
		}
	}
	return strings.Join(fields, " ")
}

// rewriteCSS rewrites url(#id) arguments in css. With selectors set, #id
// tokens in selector position are rewritten too. Quoted strings and comments
// are copied verbatim.
func rewriteCSS(css string, ids map[string]string, selectors bool) string {
	var b strings.Builder
	b.Grow(len(css))

	for i := 0; i < len(css); {
		switch c := css[i]; {
		case strings.HasPrefix(css[i:], "url("):
			i += len("url(")
			b.WriteString("url(")
			start, end := urlArg(css[i:])
			b.WriteString(css[i : i+start])
			b.WriteString(fragmentRef(css[i+start:i+end], ids))
			i += end
		case selectors && strings.HasPrefix(css[i:], "/*"):
			end := strings.Index(css[i+2:], "*/")
			if end < 0 {
				b.WriteString(css[i:])
				return b.String()
			}
			end += i + 4
			b.WriteString(css[i:end])
			i = end
		case selectors && (c == '"' || c == '\''):
			end := strings.IndexByte(css[i+1:], c)
			if end < 0 {
				b.WriteString(css[i:])
				return b.String()
			}
			end += i + 2
			b.WriteString(css[i:end])
			i = end
		case selectors && c == '#':
			j := i + 1
			for j < len(css) && isIdentByte(css[j]) {
				j++
			}
			if renamed, ok := ids[css[i+1:j]]; ok && inSelector(css[j:]) {
				b.WriteString("#" + renamed)
			} else {
				b.WriteString(css[i:j])
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// urlArg returns the bounds of the unquoted argument of a url( token whose
// opening parenthesis has already been consumed.
func urlArg(s string) (start, end int) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if i < len(s) && (s[i] == '"' || s[i] == '\'') {
		q := s[i]
		j := strings.IndexByte(s[i+1:], q)
		if j < 0 {
			return i + 1, i + 1
		}
		return i + 1, i + 1 + j
	}
	j := i
	for j < len(s) && s[j] != ')' && !isSpace(s[j]) {
		j++
	}
	return i, j
}

// inSelector reports whether the text following a #token belongs to a
// selector: a rule body opens before the current declaration ends.
func inSelector(rest string) bool {
	i := strings.IndexAny(rest, "{;}")
	return i >= 0 && rest[i] == '{'
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isASCIIIdentByte(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// isIdentByte accepts CSS identifier bytes, including any non-ASCII byte.
func isIdentByte(c byte) bool {
	return isASCIIIdentByte(c) || c >= 0x80
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
