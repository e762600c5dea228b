package domain

import (
	"time"
)

// Bias is the editorial-leaning classification of a source or article.
type Bias string

const (
	BiasLeft   Bias = "Left"
	BiasCenter Bias = "Center"
	BiasRight  Bias = "Right"
)

// ValidBias reports whether b is one of the enumerated bias values.
func ValidBias(b Bias) bool {
	switch b {
	case BiasLeft, BiasCenter, BiasRight:
		return true
	}
	return false
}

// ImpactLevel is the ordinal newsworthiness classification, S (critical) down to C (low).
type ImpactLevel string

const (
	ImpactS ImpactLevel = "S"
	ImpactA ImpactLevel = "A"
	ImpactB ImpactLevel = "B"
	ImpactC ImpactLevel = "C"
)

// ImpactPriority maps an impact level onto the fixed order S=4 > A=3 > B=2 > C=1.
// Unknown levels rank below C so they never satisfy an alert threshold.
func ImpactPriority(level ImpactLevel) int {
	switch level {
	case ImpactS:
		return 4
	case ImpactA:
		return 3
	case ImpactB:
		return 2
	case ImpactC:
		return 1
	}
	return 0
}

// ValidImpactLevel reports whether level is one of the enumerated impact levels.
func ValidImpactLevel(level ImpactLevel) bool {
	return ImpactPriority(level) > 0
}

// Article represents an ingested news article.
//
// Identity (ID, URL, Fingerprint) is immutable after creation. The
// classification fields (Summary, Sentiment, Bias, ImpactLevel) start empty
// and are filled in by the background classifier; readers must tolerate the
// window where they are unset.
type Article struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	URL         string      `db:"url"`
	Fingerprint string      `db:"fingerprint"`
	Source      string      `db:"source"`
	Content     string      `db:"content"`
	PublishedAt time.Time   `db:"published_at"`
	Bias        Bias        `db:"bias"`
	ImpactLevel ImpactLevel `db:"impact_level"`
	Sentiment   *float64    `db:"sentiment"`
	Summary     []string    `db:"summary"`
	CreatedAt   time.Time   `db:"created_at"`
}

// Classified reports whether the background classifier has filled in the
// article's analysis fields.
func (a *Article) Classified() bool {
	return a.ImpactLevel != ""
}

// Classification is the combined result of the four analysis calls for one
// article.
type Classification struct {
	Summary     []string
	Sentiment   float64
	Bias        Bias
	ImpactLevel ImpactLevel
}

// FeedSource describes one configured upstream feed.
type FeedSource struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	Bias   Bias   `json:"bias"`
}

// FeedItem is a normalized entry parsed out of a feed before filtering and
// persistence.
type FeedItem struct {
	Title       string
	Link        string
	Content     string
	PublishedAt time.Time
}
