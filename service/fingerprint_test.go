package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_URLCanonicalization(t *testing.T) {
	base := Fingerprint("https://example.com/news/story-1", "", "")

	tests := map[string]struct {
		link     string
		expected bool
	}{
		"identical_url":       {link: "https://example.com/news/story-1", expected: true},
		"tracking_query":      {link: "https://example.com/news/story-1?utm_source=rss", expected: true},
		"fragment":            {link: "https://example.com/news/story-1#section", expected: true},
		"uppercase_host":      {link: "https://EXAMPLE.com/news/story-1", expected: true},
		"trailing_slash":      {link: "https://example.com/news/story-1/", expected: true},
		"different_path":      {link: "https://example.com/news/story-2", expected: false},
		"different_host":      {link: "https://other.com/news/story-1", expected: false},
		"case_sensitive_path": {link: "https://example.com/news/STORY-1", expected: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := Fingerprint(tc.link, "", "")
			if tc.expected {
				assert.Equal(t, base, got)
			} else {
				assert.NotEqual(t, base, got)
			}
		})
	}
}

func TestFingerprint_TextFallback(t *testing.T) {
	t.Run("missing_url_hashes_normalized_text", func(t *testing.T) {
		a := Fingerprint("", "Breaking  News", "Some   content here")
		b := Fingerprint("", "breaking news", "some content HERE")
		assert.Equal(t, a, b)
	})

	t.Run("unparseable_url_falls_back_to_text", func(t *testing.T) {
		a := Fingerprint("not a url", "Title", "Content")
		b := Fingerprint("", "Title", "Content")
		assert.Equal(t, a, b)
	})

	t.Run("different_text_differs", func(t *testing.T) {
		a := Fingerprint("", "Title one", "content")
		b := Fingerprint("", "Title two", "content")
		assert.NotEqual(t, a, b)
	})
}

func TestFingerprint_Stable(t *testing.T) {
	// The fingerprint is persisted; its derivation must never drift.
	assert.Equal(t,
		Fingerprint("https://example.com/a", "", ""),
		Fingerprint("https://example.com/a", "", ""))
	assert.Len(t, Fingerprint("https://example.com/a", "", ""), 32)
}
