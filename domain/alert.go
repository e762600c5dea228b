package domain

import (
	"strings"
	"time"
)

// AlertRule is a user-owned alert definition. Rules are managed by an
// external API and are read-only to the pipeline; the owning user's contact
// fields are denormalized onto the rule so dispatch jobs can be built without
// a second lookup.
type AlertRule struct {
	ID            string `db:"id"`
	UserID        string `db:"user_id"`
	Keyword       string `db:"keyword"`
	MinImpact     ImpactLevel
	NotifyPush    bool `db:"notify_push"`
	NotifyEmail   bool `db:"notify_email"`
	NotifyDiscord bool `db:"notify_discord"`
	IsActive      bool `db:"is_active"`

	UserContact UserContact
}

// UserContact carries the delivery endpoints for a rule's owner.
type UserContact struct {
	Email            string `json:"email"`
	PushSubscription string `json:"pushSubscription"`
	DiscordWebhook   string `json:"discordWebhook"`
}

// Matches reports whether the rule fires for the classified article:
// the article's impact priority must reach the rule's threshold and the
// keyword must appear (case-insensitively) in the title or content.
func (r *AlertRule) Matches(article *Article) bool {
	if ImpactPriority(article.ImpactLevel) < ImpactPriority(r.MinImpact) {
		return false
	}
	return containsFold(article.Title, r.Keyword) || containsFold(article.Content, r.Keyword)
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// NotificationJob is the payload handed to the external notification
// dispatcher. The JSON field names are a contract with the consumer side and
// must not change.
type NotificationJob struct {
	AlertID          string      `json:"alertId"`
	UserID           string      `json:"userId"`
	ArticleID        string      `json:"articleId"`
	ArticleTitle     string      `json:"articleTitle"`
	ArticleSummary   []string    `json:"articleSummary"`
	ArticleSource    string      `json:"articleSource"`
	ArticleSentiment float64     `json:"articleSentiment"`
	ImpactLevel      ImpactLevel `json:"impactLevel"`
	NotifyPush       bool        `json:"notifyPush"`
	NotifyEmail      bool        `json:"notifyEmail"`
	NotifyDiscord    bool        `json:"notifyDiscord"`
	User             UserContact `json:"user"`
}

// DispatchRecord marks that a notification job was enqueued for an
// (alert, article) pair, guaranteeing at-most-once enqueue per pair.
type DispatchRecord struct {
	AlertID   string    `db:"alert_id"`
	ArticleID string    `db:"article_id"`
	Channels  []string  `db:"channels"`
	CreatedAt time.Time `db:"created_at"`
}
