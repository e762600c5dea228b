package service

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

// Fingerprint derives the stable dedup key for a feed item. Items with a
// usable URL hash its canonical form; items without one (the social-scraping
// path) hash the normalized title and content instead. The same logical
// article must always map to the same fingerprint, so canonicalization strips
// the volatile parts of the URL (query string, fragment, tracking noise).
func Fingerprint(link, title, content string) string {
	if canonical := canonicalURL(link); canonical != "" {
		return hashString(canonical)
	}
	return hashString(normalizeText(title) + "\n" + normalizeText(content))
}

func canonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return ""
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return strings.TrimSuffix(parsed.String(), "/")
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func hashString(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
