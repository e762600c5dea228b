package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"newswatch/domain"
	"newswatch/repository"
	"newswatch/retry"
)

const (
	summarySystemPrompt = `You are a news analyst. Summarize the article into exactly 3 short bullet points.
Respond with a JSON array of exactly 3 strings and nothing else, for example:
["First key point.","Second key point.","Third key point."]`

	sentimentSystemPrompt = `You are a news analyst. Rate the overall sentiment of the article from -1.0 (very negative) to 1.0 (very positive).
Respond with a JSON object and nothing else, for example: {"sentiment": -0.4}`

	biasSystemPrompt = `You are a media analyst. Classify the editorial leaning of the article as one of: Left, Center, Right.
Respond with a JSON object and nothing else, for example: {"bias": "Center"}`

	impactSystemPrompt = `You are a news editor. Rate the newsworthiness of the article on the scale S (critical), A (major), B (notable), C (minor).
Respond with a JSON object and nothing else, for example: {"impact": "B"}`
)

// fallbackSummary is the documented neutral default used when summary
// generation exhausts its retries. The exact strings are part of the
// downstream display contract.
var fallbackSummary = []string{
	"Summary is temporarily unavailable for this article.",
	"Automated analysis could not be completed.",
	"Refer to the original source for details.",
}

// FallbackClassification is the neutral analysis written when the model is
// unreachable, so readers never see a half-classified article for long.
func FallbackClassification() domain.Classification {
	summary := make([]string, len(fallbackSummary))
	copy(summary, fallbackSummary)
	return domain.Classification{
		Summary:     summary,
		Sentiment:   0,
		Bias:        domain.BiasCenter,
		ImpactLevel: domain.ImpactC,
	}
}

type classifierService struct {
	articleRepo  repository.ArticleRepository
	chat         ChatClient
	alertMatcher AlertMatcherService
	events       EventSink
	retryConfig  retry.Config
	logger       *slog.Logger
}

// NewClassifierService wires the background classification step. The alert
// matcher runs synchronously after a successful classification; its dispatch
// side effects are queued, not inline.
func NewClassifierService(
	articleRepo repository.ArticleRepository,
	chat ChatClient,
	alertMatcher AlertMatcherService,
	events EventSink,
	retryConfig retry.Config,
	logger *slog.Logger,
) ClassifierService {
	if logger == nil {
		logger = slog.Default()
	}
	return &classifierService{
		articleRepo:  articleRepo,
		chat:         chat,
		alertMatcher: alertMatcher,
		events:       events,
		retryConfig:  retryConfig,
		logger:       logger,
	}
}

// Classify fetches the article, runs the four sub-analyses concurrently,
// persists the combined result, then invokes the alert matcher. A vanished
// article is logged and abandoned. Each sub-analysis retries independently
// and degrades to its neutral default on exhaustion, so classification as a
// whole cannot fail on model trouble alone.
func (s *classifierService) Classify(ctx context.Context, articleID string) error {
	article, err := s.articleRepo.FindByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			s.logger.WarnContext(ctx, "article vanished before classification", "article_id", articleID)
			return nil
		}
		return fmt.Errorf("failed to load article for classification: %w", err)
	}

	classification := s.analyze(ctx, article)

	if err := s.articleRepo.UpdateClassification(ctx, articleID, classification); err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			s.logger.WarnContext(ctx, "article vanished during classification", "article_id", articleID)
			return nil
		}
		return fmt.Errorf("failed to persist classification: %w", err)
	}

	article.Summary = classification.Summary
	article.Sentiment = &classification.Sentiment
	article.Bias = classification.Bias
	article.ImpactLevel = classification.ImpactLevel

	s.logger.InfoContext(ctx, "article classified",
		"article_id", articleID,
		"impact", classification.ImpactLevel,
		"bias", classification.Bias,
		"sentiment", classification.Sentiment)

	if _, err := s.alertMatcher.MatchAndDispatch(ctx, article); err != nil {
		s.logger.ErrorContext(ctx, "alert matching failed",
			"error", err,
			"article_id", articleID)
	}

	s.events.Publish(domain.ArticleEvent{
		Type:        domain.EventArticleClassified,
		ArticleID:   article.ID,
		Title:       article.Title,
		Source:      article.Source,
		URL:         article.URL,
		ImpactLevel: article.ImpactLevel,
		PublishedAt: article.PublishedAt,
	})

	return nil
}

// analyze runs the four independent model calls concurrently and joins them.
// The sub-analyses never return errors; they fall back to defaults instead.
func (s *classifierService) analyze(ctx context.Context, article *domain.Article) domain.Classification {
	classification := FallbackClassification()
	prompt := analysisPrompt(article)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		classification.Summary = s.analyzeSummary(gctx, prompt)
		return nil
	})
	g.Go(func() error {
		classification.Sentiment = s.analyzeSentiment(gctx, prompt)
		return nil
	})
	g.Go(func() error {
		classification.Bias = s.analyzeBias(gctx, prompt)
		return nil
	})
	g.Go(func() error {
		classification.ImpactLevel = s.analyzeImpact(gctx, prompt)
		return nil
	})

	// The goroutines only return nil; Wait is a join point.
	_ = g.Wait()

	return classification
}

func (s *classifierService) analyzeSummary(ctx context.Context, prompt string) []string {
	var summary []string
	err := s.newRetrier().Do(ctx, func() error {
		raw, err := s.chat.Complete(ctx, summarySystemPrompt, prompt)
		if err != nil {
			return err
		}
		parsed, err := parseSummary(raw)
		if err != nil {
			return err
		}
		summary = parsed
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "summary analysis exhausted retries, using default", "error", err)
		return FallbackClassification().Summary
	}
	return summary
}

func (s *classifierService) analyzeSentiment(ctx context.Context, prompt string) float64 {
	var sentiment float64
	err := s.newRetrier().Do(ctx, func() error {
		raw, err := s.chat.Complete(ctx, sentimentSystemPrompt, prompt)
		if err != nil {
			return err
		}
		parsed, err := parseSentiment(raw)
		if err != nil {
			return err
		}
		sentiment = parsed
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "sentiment analysis exhausted retries, using default", "error", err)
		return 0
	}
	return sentiment
}

func (s *classifierService) analyzeBias(ctx context.Context, prompt string) domain.Bias {
	var bias domain.Bias
	err := s.newRetrier().Do(ctx, func() error {
		raw, err := s.chat.Complete(ctx, biasSystemPrompt, prompt)
		if err != nil {
			return err
		}
		parsed, err := parseBias(raw)
		if err != nil {
			return err
		}
		bias = parsed
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "bias analysis exhausted retries, using default", "error", err)
		return domain.BiasCenter
	}
	return bias
}

func (s *classifierService) analyzeImpact(ctx context.Context, prompt string) domain.ImpactLevel {
	var impact domain.ImpactLevel
	err := s.newRetrier().Do(ctx, func() error {
		raw, err := s.chat.Complete(ctx, impactSystemPrompt, prompt)
		if err != nil {
			return err
		}
		parsed, err := parseImpact(raw)
		if err != nil {
			return err
		}
		impact = parsed
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "impact analysis exhausted retries, using default", "error", err)
		return domain.ImpactC
	}
	return impact
}

func (s *classifierService) newRetrier() *retry.Retrier {
	return retry.NewRetrier(s.retryConfig, nil, s.logger)
}

const maxPromptContent = 4000

func analysisPrompt(article *domain.Article) string {
	content := article.Content
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}
	return fmt.Sprintf("Title: %s\nSource: %s\n\n%s", article.Title, article.Source, content)
}

func parseSummary(raw string) ([]string, error) {
	var summary []string
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &summary); err != nil {
		return nil, fmt.Errorf("%w: summary: %v", domain.ErrMalformedLLMResponse, err)
	}
	if len(summary) != 3 {
		return nil, fmt.Errorf("%w: summary has %d items, want 3", domain.ErrMalformedLLMResponse, len(summary))
	}
	for i, line := range summary {
		summary[i] = strings.TrimSpace(line)
		if summary[i] == "" {
			return nil, fmt.Errorf("%w: summary item %d is empty", domain.ErrMalformedLLMResponse, i)
		}
	}
	return summary, nil
}

func parseSentiment(raw string) (float64, error) {
	var parsed struct {
		Sentiment float64 `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return 0, fmt.Errorf("%w: sentiment: %v", domain.ErrMalformedLLMResponse, err)
	}
	return clamp(parsed.Sentiment, -1, 1), nil
}

func parseBias(raw string) (domain.Bias, error) {
	var parsed struct {
		Bias domain.Bias `json:"bias"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return "", fmt.Errorf("%w: bias: %v", domain.ErrMalformedLLMResponse, err)
	}
	if !domain.ValidBias(parsed.Bias) {
		return "", fmt.Errorf("%w: unknown bias %q", domain.ErrMalformedLLMResponse, parsed.Bias)
	}
	return parsed.Bias, nil
}

func parseImpact(raw string) (domain.ImpactLevel, error) {
	var parsed struct {
		Impact domain.ImpactLevel `json:"impact"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return "", fmt.Errorf("%w: impact: %v", domain.ErrMalformedLLMResponse, err)
	}
	if !domain.ValidImpactLevel(parsed.Impact) {
		return "", fmt.Errorf("%w: unknown impact level %q", domain.ErrMalformedLLMResponse, parsed.Impact)
	}
	return parsed.Impact, nil
}

// stripCodeFences removes a surrounding markdown code block. Models wrap JSON
// in ```json fences often enough that treating it as malformed wastes retries.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
