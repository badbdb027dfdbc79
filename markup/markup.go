// Package markup reduces stored field HTML to plain text for search index
// records and list previews.
package markup

import (
	"html"
	"regexp"
	"strings"
)

var (
	reTag    = regexp.MustCompile(`(?s)<[^>]*>`)
	reScript = regexp.MustCompile(`(?is)<(script|style)\b.*?</(script|style)>`)
	reSpace  = regexp.MustCompile(`\s+`)
)

// Strip removes tags and entity-encodes-away the markup in s, collapsing
// whitespace. Script and style bodies are dropped entirely, not flattened
// into text.
func Strip(s string) string {
	s = reScript.ReplaceAllString(s, " ")
	s = reTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = reSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Excerpt strips s and truncates it to at most n runes on a word boundary,
// appending an ellipsis when shortened.
func Excerpt(s string, n int) string {
	plain := Strip(s)
	runes := []rune(plain)
	if len(runes) <= n {
		return plain
	}
	cut := string(runes[:n])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
