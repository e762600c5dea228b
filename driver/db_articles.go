package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newswatch/domain"

	"github.com/jackc/pgx/v5"
)

const articleColumns = `id, title, url, fingerprint, source, content, published_at,
	COALESCE(bias, ''), COALESCE(impact_level, ''), sentiment, COALESCE(summary, '{}'), created_at`

// InsertArticle persists a new article. The fingerprint column carries a
// unique constraint; a conflicting insert affects zero rows and is reported
// as domain.ErrDuplicateArticle so concurrent collection cycles stay
// idempotent without a separate existence transaction.
func InsertArticle(ctx context.Context, db DB, article *domain.Article) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `
		INSERT INTO articles (id, title, url, fingerprint, source, content, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (fingerprint) DO NOTHING
	`

	tag, err := db.Exec(ctx, query,
		article.ID,
		article.Title,
		article.URL,
		article.Fingerprint,
		article.Source,
		article.Content,
		article.PublishedAt,
	)
	if err != nil {
		// The url column is also unique; a clash there is still a duplicate.
		if isUniqueViolation(err) {
			return domain.ErrDuplicateArticle
		}
		return fmt.Errorf("failed to insert article: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateArticle
	}

	return nil
}

// GetArticleByFingerprint returns the article with the given fingerprint, or
// nil when none exists.
func GetArticleByFingerprint(ctx context.Context, db DB, fingerprint string) (*domain.Article, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `SELECT ` + articleColumns + ` FROM articles WHERE fingerprint = $1`

	article, err := scanArticle(db.QueryRow(ctx, query, fingerprint))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get article by fingerprint: %w", err)
	}

	return article, nil
}

// GetArticleByID returns the article with the given id, or
// domain.ErrArticleNotFound.
func GetArticleByID(ctx context.Context, db DB, articleID string) (*domain.Article, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	article, err := scanArticle(db.QueryRow(ctx, query, articleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to get article by id: %w", err)
	}

	return article, nil
}

// UpdateArticleClassification writes the analysis fields onto an existing
// article row. Identity columns are never touched.
func UpdateArticleClassification(ctx context.Context, db DB, articleID string, c domain.Classification) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `
		UPDATE articles
		SET summary = $2, sentiment = $3, bias = $4, impact_level = $5
		WHERE id = $1
	`

	tag, err := db.Exec(ctx, query, articleID, c.Summary, c.Sentiment, string(c.Bias), string(c.ImpactLevel))
	if err != nil {
		return fmt.Errorf("failed to update article classification: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrArticleNotFound
	}

	return nil
}

// GetUnclusteredRecentArticles returns articles published after since that
// are not linked to any storyline yet, oldest first, up to limit.
func GetUnclusteredRecentArticles(ctx context.Context, db DB, since time.Time, limit int) ([]*domain.Article, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		WHERE a.published_at >= $1
		  AND NOT EXISTS (
			SELECT 1 FROM storyline_articles sa WHERE sa.article_id = a.id
		  )
		ORDER BY a.published_at ASC
		LIMIT $2
	`

	rows, err := db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unclustered articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// GetUnclassifiedArticles returns articles created before cutoff whose
// classification fields are still empty. Used by the collection cycle to
// re-enqueue work lost to a crash between creation and classification.
func GetUnclassifiedArticles(ctx context.Context, db DB, cutoff time.Time, limit int) ([]*domain.Article, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE impact_level IS NULL AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := db.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unclassified articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

func scanArticle(row pgx.Row) (*domain.Article, error) {
	var article domain.Article
	var bias, impact string

	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.URL,
		&article.Fingerprint,
		&article.Source,
		&article.Content,
		&article.PublishedAt,
		&bias,
		&impact,
		&article.Sentiment,
		&article.Summary,
		&article.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.Bias = domain.Bias(bias)
	article.ImpactLevel = domain.ImpactLevel(impact)

	return &article, nil
}

func scanArticles(rows pgx.Rows) ([]*domain.Article, error) {
	var articles []*domain.Article

	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read article rows: %w", err)
	}

	return articles, nil
}
