package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newswatch/domain"
	"newswatch/driver"
)

type articleRepository struct {
	db     driver.DB
	logger *slog.Logger
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db driver.DB, logger *slog.Logger) ArticleRepository {
	return &articleRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new article. Duplicate fingerprints surface as
// domain.ErrDuplicateArticle, which callers count as a skip.
func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	if err := driver.InsertArticle(ctx, r.db, article); err != nil {
		if errors.Is(err, domain.ErrDuplicateArticle) {
			return err
		}
		r.logger.ErrorContext(ctx, "failed to create article", "error", err, "url", article.URL)
		return fmt.Errorf("failed to create article: %w", err)
	}

	r.logger.InfoContext(ctx, "article created", "article_id", article.ID, "url", article.URL)

	return nil
}

func (r *articleRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Article, error) {
	article, err := driver.GetArticleByFingerprint(ctx, r.db, fingerprint)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find article by fingerprint", "error", err)
		return nil, fmt.Errorf("failed to find article by fingerprint: %w", err)
	}

	return article, nil
}

func (r *articleRepository) FindByID(ctx context.Context, articleID string) (*domain.Article, error) {
	article, err := driver.GetArticleByID(ctx, r.db, articleID)
	if err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			return nil, err
		}
		r.logger.ErrorContext(ctx, "failed to find article by id", "error", err, "article_id", articleID)
		return nil, fmt.Errorf("failed to find article by id: %w", err)
	}

	return article, nil
}

func (r *articleRepository) UpdateClassification(ctx context.Context, articleID string, classification domain.Classification) error {
	if err := driver.UpdateArticleClassification(ctx, r.db, articleID, classification); err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			return err
		}
		r.logger.ErrorContext(ctx, "failed to update classification", "error", err, "article_id", articleID)
		return fmt.Errorf("failed to update classification: %w", err)
	}

	r.logger.InfoContext(ctx, "classification persisted",
		"article_id", articleID,
		"impact_level", classification.ImpactLevel)

	return nil
}

func (r *articleRepository) FindUnclusteredRecent(ctx context.Context, window time.Duration, limit int) ([]*domain.Article, error) {
	since := time.Now().Add(-window)

	articles, err := driver.GetUnclusteredRecentArticles(ctx, r.db, since, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find unclustered articles", "error", err)
		return nil, fmt.Errorf("failed to find unclustered articles: %w", err)
	}

	return articles, nil
}

func (r *articleRepository) FindUnclassified(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Article, error) {
	cutoff := time.Now().Add(-olderThan)

	articles, err := driver.GetUnclassifiedArticles(ctx, r.db, cutoff, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find unclassified articles", "error", err)
		return nil, fmt.Errorf("failed to find unclassified articles: %w", err)
	}

	return articles, nil
}
