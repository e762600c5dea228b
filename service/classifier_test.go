package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newswatch/domain"
	"newswatch/retry"
)

func testRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:   3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// canned routes the stub chat by system prompt so each sub-analysis gets its
// own response.
func canned(summary, sentiment, bias, impact string) func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		switch systemPrompt {
		case summarySystemPrompt:
			return summary, nil
		case sentimentSystemPrompt:
			return sentiment, nil
		case biasSystemPrompt:
			return bias, nil
		case impactSystemPrompt:
			return impact, nil
		}
		return "", errors.New("unexpected prompt")
	}
}

func testArticle() *domain.Article {
	return &domain.Article{
		ID:          "article-1",
		Title:       "Election results disputed",
		Source:      "Example Wire",
		Content:     "A long dispute over the count.",
		PublishedAt: time.Now(),
	}
}

func TestClassifierService_Classify_Success(t *testing.T) {
	article := testArticle()
	var persisted domain.Classification

	repo := &stubArticleRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.Article, error) {
			require.Equal(t, "article-1", id)
			return article, nil
		},
		updateClassificationFn: func(ctx context.Context, id string, c domain.Classification) error {
			persisted = c
			return nil
		},
	}
	chat := &stubChat{completeFn: canned(
		`["Point one.","Point two.","Point three."]`,
		`{"sentiment": -0.4}`,
		`{"bias": "Left"}`,
		`{"impact": "A"}`,
	)}
	matcher := &stubAlertMatcher{}
	sink := &stubEvents{}

	svc := NewClassifierService(repo, chat, matcher, sink, testRetryConfig(), nil)

	err := svc.Classify(context.Background(), "article-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"Point one.", "Point two.", "Point three."}, persisted.Summary)
	assert.InDelta(t, -0.4, persisted.Sentiment, 1e-9)
	assert.Equal(t, domain.BiasLeft, persisted.Bias)
	assert.Equal(t, domain.ImpactA, persisted.ImpactLevel)

	// Alert matching runs with the classified article.
	require.Len(t, matcher.Articles(), 1)
	assert.Equal(t, domain.ImpactA, matcher.Articles()[0].ImpactLevel)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventArticleClassified, events[0].Type)
	assert.Equal(t, "article-1", events[0].ArticleID)
}

func TestClassifierService_Classify_FencedResponses(t *testing.T) {
	article := testArticle()
	var persisted domain.Classification

	repo := &stubArticleRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.Article, error) { return article, nil },
		updateClassificationFn: func(ctx context.Context, id string, c domain.Classification) error {
			persisted = c
			return nil
		},
	}
	chat := &stubChat{completeFn: canned(
		"```json\n[\"A.\",\"B.\",\"C.\"]\n```",
		"```\n{\"sentiment\": 0.9}\n```",
		`{"bias": "Right"}`,
		"```json\n{\"impact\": \"S\"}\n```",
	)}

	svc := NewClassifierService(repo, chat, &stubAlertMatcher{}, &stubEvents{}, testRetryConfig(), nil)
	require.NoError(t, svc.Classify(context.Background(), "article-1"))

	assert.Equal(t, []string{"A.", "B.", "C."}, persisted.Summary)
	assert.InDelta(t, 0.9, persisted.Sentiment, 1e-9)
	assert.Equal(t, domain.BiasRight, persisted.Bias)
	assert.Equal(t, domain.ImpactS, persisted.ImpactLevel)
}

func TestClassifierService_Classify_DefaultsOnExhaustedRetries(t *testing.T) {
	article := testArticle()
	var persisted domain.Classification

	repo := &stubArticleRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.Article, error) { return article, nil },
		updateClassificationFn: func(ctx context.Context, id string, c domain.Classification) error {
			persisted = c
			return nil
		},
	}
	chat := &stubChat{completeFn: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		return "", errors.New("model unavailable")
	}}
	matcher := &stubAlertMatcher{}

	svc := NewClassifierService(repo, chat, matcher, &stubEvents{}, testRetryConfig(), nil)
	require.NoError(t, svc.Classify(context.Background(), "article-1"))

	// Every sub-analysis degrades to its documented default.
	assert.Equal(t, FallbackClassification(), persisted)
	assert.Equal(t, 0.0, persisted.Sentiment)
	assert.Equal(t, domain.BiasCenter, persisted.Bias)
	assert.Equal(t, domain.ImpactC, persisted.ImpactLevel)
	assert.Len(t, persisted.Summary, 3)

	// Even a fully defaulted classification flows into alert matching.
	assert.Len(t, matcher.Articles(), 1)
}

func TestClassifierService_Classify_MalformedThenValid(t *testing.T) {
	article := testArticle()
	var persisted domain.Classification
	attempts := 0

	repo := &stubArticleRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.Article, error) { return article, nil },
		updateClassificationFn: func(ctx context.Context, id string, c domain.Classification) error {
			persisted = c
			return nil
		},
	}
	chat := &stubChat{completeFn: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		if systemPrompt != impactSystemPrompt {
			return canned(
				`["One.","Two.","Three."]`,
				`{"sentiment": 0}`,
				`{"bias": "Center"}`,
				"",
			)(ctx, systemPrompt, userPrompt)
		}
		attempts++
		if attempts == 1 {
			// Out-of-set value is a retryable malformed response.
			return `{"impact": "Z"}`, nil
		}
		return `{"impact": "B"}`, nil
	}}

	svc := NewClassifierService(repo, chat, &stubAlertMatcher{}, &stubEvents{}, testRetryConfig(), nil)
	require.NoError(t, svc.Classify(context.Background(), "article-1"))

	assert.Equal(t, 2, attempts)
	assert.Equal(t, domain.ImpactB, persisted.ImpactLevel)
}

func TestClassifierService_Classify_ArticleVanished(t *testing.T) {
	repo := &stubArticleRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.Article, error) {
			return nil, domain.ErrArticleNotFound
		},
		updateClassificationFn: func(ctx context.Context, id string, c domain.Classification) error {
			t.Fatal("update must not be called for a vanished article")
			return nil
		},
	}
	matcher := &stubAlertMatcher{}

	svc := NewClassifierService(repo, &stubChat{}, matcher, &stubEvents{}, testRetryConfig(), nil)

	// Vanished articles are abandoned, not errors.
	assert.NoError(t, svc.Classify(context.Background(), "gone"))
	assert.Empty(t, matcher.Articles())
}

func TestClassifierService_Classify_SentimentClamped(t *testing.T) {
	article := testArticle()
	var persisted domain.Classification

	repo := &stubArticleRepo{
		findByIDFn: func(ctx context.Context, id string) (*domain.Article, error) { return article, nil },
		updateClassificationFn: func(ctx context.Context, id string, c domain.Classification) error {
			persisted = c
			return nil
		},
	}
	chat := &stubChat{completeFn: canned(
		`["One.","Two.","Three."]`,
		`{"sentiment": -3.5}`,
		`{"bias": "Center"}`,
		`{"impact": "C"}`,
	)}

	svc := NewClassifierService(repo, chat, &stubAlertMatcher{}, &stubEvents{}, testRetryConfig(), nil)
	require.NoError(t, svc.Classify(context.Background(), "article-1"))

	assert.Equal(t, -1.0, persisted.Sentiment)
}

func TestParseSummary(t *testing.T) {
	tests := map[string]struct {
		raw         string
		expected    []string
		expectError bool
	}{
		"valid":            {raw: `["a","b","c"]`, expected: []string{"a", "b", "c"}},
		"two_items":        {raw: `["a","b"]`, expectError: true},
		"four_items":       {raw: `["a","b","c","d"]`, expectError: true},
		"empty_item":       {raw: `["a","","c"]`, expectError: true},
		"not_json":         {raw: `three bullet points`, expectError: true},
		"object_not_array": {raw: `{"summary":["a","b","c"]}`, expectError: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseSummary(tc.raw)
			if tc.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrMalformedLLMResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := map[string]struct {
		raw      string
		expected string
	}{
		"no_fence":        {raw: `{"a":1}`, expected: `{"a":1}`},
		"json_fence":      {raw: "```json\n{\"a\":1}\n```", expected: `{"a":1}`},
		"bare_fence":      {raw: "```\n{\"a\":1}\n```", expected: `{"a":1}`},
		"whitespace":      {raw: "  {\"a\":1}  ", expected: `{"a":1}`},
		"fence_no_newline": {raw: "```{\"a\":1}```", expected: `{"a":1}`},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripCodeFences(tc.raw))
		})
	}
}
