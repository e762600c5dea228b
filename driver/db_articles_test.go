package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newswatch/domain"
)

var articleColumnNames = []string{
	"id", "title", "url", "fingerprint", "source", "content", "published_at",
	"bias", "impact_level", "sentiment", "summary", "created_at",
}

func sampleArticle() *domain.Article {
	return &domain.Article{
		ID:          "article-1",
		Title:       "Election results disputed",
		URL:         "https://example.com/news/1",
		Fingerprint: "abc123",
		Source:      "Example Wire",
		Content:     "Recounts continue.",
		PublishedAt: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestInsertArticle(t *testing.T) {
	t.Run("inserts_new_article", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		article := sampleArticle()
		mock.ExpectExec("INSERT INTO articles").
			WithArgs(article.ID, article.Title, article.URL, article.Fingerprint,
				article.Source, article.Content, article.PublishedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, InsertArticle(context.Background(), mock, article))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict_is_duplicate", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		article := sampleArticle()
		mock.ExpectExec("INSERT INTO articles").
			WithArgs(article.ID, article.Title, article.URL, article.Fingerprint,
				article.Source, article.Content, article.PublishedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		err = InsertArticle(context.Background(), mock, article)
		assert.ErrorIs(t, err, domain.ErrDuplicateArticle)
	})

	t.Run("unique_violation_is_duplicate", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		article := sampleArticle()
		mock.ExpectExec("INSERT INTO articles").
			WithArgs(article.ID, article.Title, article.URL, article.Fingerprint,
				article.Source, article.Content, article.PublishedAt).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err = InsertArticle(context.Background(), mock, article)
		assert.ErrorIs(t, err, domain.ErrDuplicateArticle)
	})

	t.Run("nil_db", func(t *testing.T) {
		assert.Error(t, InsertArticle(context.Background(), nil, sampleArticle()))
	})
}

func TestGetArticleByFingerprint(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		sentiment := 0.5
		rows := pgxmock.NewRows(articleColumnNames).AddRow(
			"article-1", "Title", "https://example.com/news/1", "abc123", "Example Wire",
			"Body", time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
			"Center", "B", &sentiment, []string{"a", "b", "c"},
			time.Date(2026, 8, 20, 9, 5, 0, 0, time.UTC),
		)
		mock.ExpectQuery("SELECT (.+) FROM articles WHERE fingerprint").
			WithArgs("abc123").
			WillReturnRows(rows)

		article, err := GetArticleByFingerprint(context.Background(), mock, "abc123")
		require.NoError(t, err)
		require.NotNil(t, article)
		assert.Equal(t, "article-1", article.ID)
		assert.Equal(t, domain.BiasCenter, article.Bias)
		assert.Equal(t, domain.ImpactB, article.ImpactLevel)
		require.NotNil(t, article.Sentiment)
		assert.InDelta(t, 0.5, *article.Sentiment, 1e-9)
	})

	t.Run("missing_returns_nil", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT (.+) FROM articles WHERE fingerprint").
			WithArgs("missing").
			WillReturnRows(pgxmock.NewRows(articleColumnNames))

		article, err := GetArticleByFingerprint(context.Background(), mock, "missing")
		require.NoError(t, err)
		assert.Nil(t, article)
	})
}

func TestGetArticleByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM articles WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(articleColumnNames))

	_, err = GetArticleByID(context.Background(), mock, "missing")
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestUpdateArticleClassification(t *testing.T) {
	classification := domain.Classification{
		Summary:     []string{"a", "b", "c"},
		Sentiment:   -0.25,
		Bias:        domain.BiasLeft,
		ImpactLevel: domain.ImpactA,
	}

	t.Run("updates_row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE articles").
			WithArgs("article-1", classification.Summary, classification.Sentiment, "Left", "A").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, UpdateArticleClassification(context.Background(), mock, "article-1", classification))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing_article", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE articles").
			WithArgs("gone", classification.Summary, classification.Sentiment, "Left", "A").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = UpdateArticleClassification(context.Background(), mock, "gone", classification)
		assert.ErrorIs(t, err, domain.ErrArticleNotFound)
	})
}

func TestGetUnclusteredRecentArticles(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	since := time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(articleColumnNames).
		AddRow("a1", "T1", "https://example.com/1", "f1", "Wire", "Body",
			since.Add(time.Hour), "", "", nil, []string{}, since.Add(2*time.Hour)).
		AddRow("a2", "T2", "https://example.com/2", "f2", "Wire", "Body",
			since.Add(3*time.Hour), "", "", nil, []string{}, since.Add(4*time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM articles a").
		WithArgs(since, 100).
		WillReturnRows(rows)

	articles, err := GetUnclusteredRecentArticles(context.Background(), mock, since, 100)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "a1", articles[0].ID)
	assert.False(t, articles[0].Classified())
}

func TestScanArticles_RowError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(articleColumnNames).
		AddRow("a1", "T1", "https://example.com/1", "f1", "Wire", "Body",
			time.Now(), "", "", nil, []string{}, time.Now()).
		RowError(0, errors.New("broken row"))

	mock.ExpectQuery("SELECT (.+) FROM articles").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(rows)

	_, err = GetUnclassifiedArticles(context.Background(), mock, time.Now(), 10)
	assert.Error(t, err)
}
