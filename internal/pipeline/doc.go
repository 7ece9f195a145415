// Package pipeline implements the Markdown-to-HTML page pipeline around the
// diagram transform.
//
// Stages, in order:
//   - Markdown preprocessing (line endings, byte order mark, blank lines)
//   - Markdown to HTML conversion via Goldmark, with diagrams rendered
//     server-side by the root mermaid extension or left as
//     <pre class="mermaid"> blocks for mermaid.js
//   - relative path rewriting so images and links resolve from the output
//     directory
//   - page assembly: base, highlight and theme stylesheets, an optional
//     client script, standalone document or fragment
//
// Diagram rendering itself lives in the root package; this package only
// decides how rendered pages are put together.
package pipeline
