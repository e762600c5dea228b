package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newswatch/domain"
	"newswatch/repository"
)

type alertMatcherService struct {
	alertRepo    repository.AlertRepository
	dispatchRepo repository.DispatchRepository
	queue        NotificationEnqueuer
	logger       *slog.Logger
}

// NewAlertMatcherService wires alert evaluation. No network I/O happens here;
// matches are handed to the notification queue and the external consumer owns
// delivery.
func NewAlertMatcherService(
	alertRepo repository.AlertRepository,
	dispatchRepo repository.DispatchRepository,
	queue NotificationEnqueuer,
	logger *slog.Logger,
) AlertMatcherService {
	if logger == nil {
		logger = slog.Default()
	}
	return &alertMatcherService{
		alertRepo:    alertRepo,
		dispatchRepo: dispatchRepo,
		queue:        queue,
		logger:       logger,
	}
}

// MatchAndDispatch evaluates the classified article against all active alert
// rules and enqueues one notification job per match. Rules are loaded fresh
// on every call; they can change between invocations and caching them here
// would go stale. The dispatch record table makes enqueueing at-most-once per
// (alert, article) pair, so replaying a classification event is harmless.
func (s *alertMatcherService) MatchAndDispatch(ctx context.Context, article *domain.Article) (*MatchResult, error) {
	rules, err := s.alertRepo.ListActiveAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}

	result := &MatchResult{RuleCount: len(rules)}

	for _, rule := range rules {
		if !rule.Matches(article) {
			continue
		}
		result.MatchedCount++

		dispatched, err := s.dispatchRepo.Exists(ctx, rule.ID, article.ID)
		if err != nil {
			result.ErrorCount++
			s.logger.ErrorContext(ctx, "dispatch existence check failed",
				"error", err,
				"alert_id", rule.ID,
				"article_id", article.ID)
			continue
		}
		if dispatched {
			result.SkippedCount++
			continue
		}

		if err := s.dispatch(ctx, rule, article); err != nil {
			if errors.Is(err, domain.ErrDuplicateDispatch) {
				// Another classification replay won the race.
				result.SkippedCount++
				continue
			}
			result.ErrorCount++
			s.logger.ErrorContext(ctx, "notification dispatch failed",
				"error", err,
				"alert_id", rule.ID,
				"article_id", article.ID)
			continue
		}
		result.EnqueuedCount++
	}

	if result.MatchedCount > 0 {
		s.logger.InfoContext(ctx, "alert matching finished",
			"article_id", article.ID,
			"rules", result.RuleCount,
			"matched", result.MatchedCount,
			"enqueued", result.EnqueuedCount,
			"skipped", result.SkippedCount)
	}

	return result, nil
}

// dispatch records the (alert, article) marker first, then enqueues. Ordering
// matters: recording first means a crash can lose a notification but never
// duplicate one, which is the guarantee the contract asks for.
func (s *alertMatcherService) dispatch(ctx context.Context, rule *domain.AlertRule, article *domain.Article) error {
	record := &domain.DispatchRecord{
		AlertID:   rule.ID,
		ArticleID: article.ID,
		Channels:  ruleChannels(rule),
		CreatedAt: time.Now(),
	}
	if err := s.dispatchRepo.Create(ctx, record); err != nil {
		return err
	}

	job := &domain.NotificationJob{
		AlertID:        rule.ID,
		UserID:         rule.UserID,
		ArticleID:      article.ID,
		ArticleTitle:   article.Title,
		ArticleSummary: article.Summary,
		ArticleSource:  article.Source,
		ImpactLevel:    article.ImpactLevel,
		NotifyPush:     rule.NotifyPush,
		NotifyEmail:    rule.NotifyEmail,
		NotifyDiscord:  rule.NotifyDiscord,
		User:           rule.UserContact,
	}
	if article.Sentiment != nil {
		job.ArticleSentiment = *article.Sentiment
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue notification job: %w", err)
	}

	return nil
}

func ruleChannels(rule *domain.AlertRule) []string {
	channels := make([]string, 0, 3)
	if rule.NotifyPush {
		channels = append(channels, "push")
	}
	if rule.NotifyEmail {
		channels = append(channels, "email")
	}
	if rule.NotifyDiscord {
		channels = append(channels, "discord")
	}
	return channels
}
