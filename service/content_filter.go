package service

import (
	"strings"

	"newswatch/domain"
)

// ContentFilter is the keyword relevance gate applied before an item reaches
// storage. It is a pure predicate with no side effects.
type ContentFilter struct {
	keywords []string
}

// NewContentFilter lowercases and trims the keyword set once at construction.
func NewContentFilter(keywords []string) *ContentFilter {
	lowered := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" {
			lowered = append(lowered, keyword)
		}
	}
	return &ContentFilter{keywords: lowered}
}

// Relevant reports whether any configured keyword appears in the item's title
// or content, case-insensitively. An empty keyword set rejects everything.
func (f *ContentFilter) Relevant(item *domain.FeedItem) bool {
	if len(f.keywords) == 0 {
		return false
	}

	haystack := strings.ToLower(item.Title + " " + item.Content)
	for _, keyword := range f.keywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}
