package repository

import (
	"context"
	"time"

	"newswatch/domain"
)

// ArticleRepository handles article persistence. The articles table is the
// single source of truth; no component caches article state across the async
// classification boundary.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Article, error)
	FindByID(ctx context.Context, articleID string) (*domain.Article, error)
	UpdateClassification(ctx context.Context, articleID string, classification domain.Classification) error
	FindUnclusteredRecent(ctx context.Context, window time.Duration, limit int) ([]*domain.Article, error)
	FindUnclassified(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Article, error)
}

// AlertRepository reads alert rules. Rules are owned by the external
// management API; the pipeline never writes them.
type AlertRepository interface {
	ListActiveAlerts(ctx context.Context) ([]*domain.AlertRule, error)
}

// StorylineRepository handles storyline persistence and the article join
// table.
type StorylineRepository interface {
	Create(ctx context.Context, storyline *domain.Storyline) error
	ListOngoing(ctx context.Context) ([]*domain.Storyline, error)
	LinkArticle(ctx context.Context, storylineID, articleID string, isKeyEvent bool) (bool, error)
	RecordProgress(ctx context.Context, storylineID string, lastEventAt time.Time, addedCount int) error
}

// DispatchRepository handles the at-most-once notification markers.
type DispatchRepository interface {
	Exists(ctx context.Context, alertID, articleID string) (bool, error)
	Create(ctx context.Context, record *domain.DispatchRecord) error
}
