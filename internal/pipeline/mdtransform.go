package pipeline

import (
	"context"
	"regexp"
	"strings"
)

// byteOrderMark is stripped so the first line parses as Markdown.
const byteOrderMark = "\uFEFF"

var crlfOrCR = regexp.MustCompile(`\r\n?`)

// PreprocessMarkdown normalizes line endings and drops a leading byte order
// mark. Line numbers and fenced content are left as written.
func PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = strings.TrimPrefix(content, byteOrderMark)
	return normalizeLineEndings(content)
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}
