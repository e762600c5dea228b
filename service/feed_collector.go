package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"newswatch/config"
	"newswatch/domain"
	"newswatch/ratelimit"
	"newswatch/repository"
	"newswatch/utils/htmltext"
)

type feedCollectorService struct {
	cfg           config.CollectorConfig
	fetcher       FeedFetcher
	filter        *ContentFilter
	articleRepo   repository.ArticleRepository
	hostLimiter   *ratelimit.HostLimiter
	classifyQueue ClassifyQueue
	events        EventSink
	logger        *slog.Logger
}

// NewFeedCollectorService wires the collection cycle: fetch, filter, dedup,
// persist, then hand each new article to the background classifier.
func NewFeedCollectorService(
	cfg config.CollectorConfig,
	fetcher FeedFetcher,
	articleRepo repository.ArticleRepository,
	classifyQueue ClassifyQueue,
	events EventSink,
	logger *slog.Logger,
) FeedCollectorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &feedCollectorService{
		cfg:           cfg,
		fetcher:       fetcher,
		filter:        NewContentFilter(cfg.Keywords),
		articleRepo:   articleRepo,
		hostLimiter:   ratelimit.NewHostLimiter(cfg.HostInterval),
		classifyQueue: classifyQueue,
		events:        events,
		logger:        logger,
	}
}

// CollectAll runs one collection cycle. Feeds are processed sequentially with
// a mandatory pause between them; that pause is an upstream rate-limit
// courtesy, not a tunable. A failing feed is logged and skipped, never fatal
// to the cycle. Concurrent cycles are safe because dedup is enforced at the
// storage layer.
func (s *feedCollectorService) CollectAll(ctx context.Context) *CollectionResult {
	result := &CollectionResult{}
	start := time.Now()

	for i, feed := range s.cfg.Feeds {
		if i > 0 {
			select {
			case <-ctx.Done():
				s.logger.InfoContext(ctx, "collection cycle cancelled", "feeds_done", i)
				return result
			case <-time.After(s.cfg.FeedDelay):
			}
		}

		if err := s.collectFeed(ctx, feed, result); err != nil {
			result.FailedFeeds++
			s.logger.ErrorContext(ctx, "feed collection failed",
				"error", err,
				"feed_url", feed.URL,
				"source", feed.Source)
		}
	}

	result.BackfilledCount = s.backfillUnclassified(ctx)

	s.logger.InfoContext(ctx, "collection cycle finished",
		"processed", result.ProcessedCount,
		"created", result.CreatedCount,
		"duplicates", result.DuplicateCount,
		"filtered", result.FilteredCount,
		"failed_feeds", result.FailedFeeds,
		"backfilled", result.BackfilledCount,
		"duration", time.Since(start))

	return result
}

func (s *feedCollectorService) collectFeed(ctx context.Context, source domain.FeedSource, result *CollectionResult) error {
	if err := s.hostLimiter.WaitForHost(ctx, source.URL); err != nil {
		return err
	}

	feed, err := s.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		return err
	}

	for _, entry := range feed.Items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result.ProcessedCount++
		s.processItem(ctx, source, normalizeItem(entry), result)
	}

	return nil
}

func (s *feedCollectorService) processItem(ctx context.Context, source domain.FeedSource, item *domain.FeedItem, result *CollectionResult) {
	if item.Title == "" {
		result.FilteredCount++
		return
	}

	if !s.filter.Relevant(item) {
		result.FilteredCount++
		return
	}

	fingerprint := Fingerprint(item.Link, item.Title, item.Content)

	// Pre-check keeps the common duplicate path off the insert; the unique
	// constraint closes the remaining race.
	existing, err := s.articleRepo.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		s.logger.ErrorContext(ctx, "fingerprint lookup failed",
			"error", err,
			"link", item.Link)
		return
	}
	if existing != nil {
		result.DuplicateCount++
		return
	}

	article := &domain.Article{
		ID:          uuid.New().String(),
		Title:       item.Title,
		URL:         item.Link,
		Fingerprint: fingerprint,
		Source:      source.Source,
		Content:     item.Content,
		PublishedAt: item.PublishedAt,
		Bias:        source.Bias,
		CreatedAt:   time.Now(),
	}

	if err := s.articleRepo.Create(ctx, article); err != nil {
		if errors.Is(err, domain.ErrDuplicateArticle) {
			result.DuplicateCount++
			return
		}
		s.logger.ErrorContext(ctx, "failed to persist article",
			"error", err,
			"link", item.Link,
			"source", source.Source)
		return
	}

	result.CreatedCount++

	s.events.Publish(domain.ArticleEvent{
		Type:        domain.EventArticleCreated,
		ArticleID:   article.ID,
		Title:       article.Title,
		Source:      article.Source,
		URL:         article.URL,
		PublishedAt: article.PublishedAt,
	})

	if !s.classifyQueue.Enqueue(article.ID) {
		s.logger.WarnContext(ctx, "classification queue full, article left for backfill",
			"article_id", article.ID)
	}
}

// backfillUnclassified re-enqueues articles whose classification never
// landed, typically after a crash or a saturated queue. The age cutoff keeps
// freshly created articles out while their background task is still running.
func (s *feedCollectorService) backfillUnclassified(ctx context.Context) int {
	articles, err := s.articleRepo.FindUnclassified(ctx, s.cfg.BackfillAge, s.cfg.BackfillLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "unclassified backfill query failed", "error", err)
		return 0
	}

	enqueued := 0
	for _, article := range articles {
		if s.classifyQueue.Enqueue(article.ID) {
			enqueued++
		}
	}

	if enqueued > 0 {
		s.logger.InfoContext(ctx, "re-enqueued unclassified articles", "count", enqueued)
	}

	return enqueued
}

func normalizeItem(entry *gofeed.Item) *domain.FeedItem {
	content := entry.Content
	if content == "" {
		content = entry.Description
	}

	publishedAt := time.Now()
	if entry.PublishedParsed != nil {
		publishedAt = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		publishedAt = *entry.UpdatedParsed
	}

	return &domain.FeedItem{
		Title:       htmltext.Extract(entry.Title),
		Link:        entry.Link,
		Content:     htmltext.Extract(content),
		PublishedAt: publishedAt,
	}
}
