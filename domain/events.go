package domain

import (
	"time"
)

// Event types broadcast to live subscribers.
const (
	EventArticleCreated    = "article.created"
	EventArticleClassified = "article.classified"
)

// ArticleEvent is the payload published to live subscribers when an article
// is created or classified. Best-effort fan-out only; no durability.
type ArticleEvent struct {
	Type        string      `json:"type"`
	ArticleID   string      `json:"articleId"`
	Title       string      `json:"title"`
	Source      string      `json:"source"`
	URL         string      `json:"url"`
	ImpactLevel ImpactLevel `json:"impactLevel,omitempty"`
	PublishedAt time.Time   `json:"publishedAt"`
}
