// Package htmltext reduces feed-provided HTML fragments to plain text.
package htmltext

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// Extract converts a feed item's HTML content into normalized plain text.
// Script, style, and navigation elements are dropped; whitespace is
// collapsed so the result contains only readable sentences.
func Extract(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	// Already plain text.
	if !strings.Contains(trimmed, "<") {
		return normalizeWhitespace(html.UnescapeString(trimmed))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err == nil {
		doc.Find("script, style, nav, header, footer, iframe").Remove()
		if text := normalizeWhitespace(doc.Text()); text != "" {
			return text
		}
	}

	// Fall back to tag stripping when the fragment will not parse.
	return normalizeWhitespace(html.UnescapeString(stripPolicy.Sanitize(trimmed)))
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
