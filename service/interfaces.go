// Package service implements the newswatch pipeline: feed collection,
// keyword filtering, deduplication, background classification, alert
// matching, and storyline clustering.
package service

import (
	"context"

	"github.com/mmcdole/gofeed"

	"newswatch/domain"
)

// FeedFetcher retrieves and parses one upstream feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error)
}

// ChatClient performs one chat-completion exchange with the model provider.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NotificationEnqueuer hands dispatch jobs to the external notification
// consumer. Delivery retries are the consumer's concern.
type NotificationEnqueuer interface {
	Enqueue(ctx context.Context, job *domain.NotificationJob) error
}

// EventSink receives pipeline events for live subscribers. Fire and forget.
type EventSink interface {
	Publish(event domain.ArticleEvent)
}

// ClassifyQueue accepts article ids for background classification. Enqueue
// reports false when the queue is full or shut down; the article stays
// unclassified until a backfill pass picks it up.
type ClassifyQueue interface {
	Enqueue(articleID string) bool
}

// FeedCollectorService runs one collection cycle over all configured feeds.
type FeedCollectorService interface {
	CollectAll(ctx context.Context) *CollectionResult
}

// ClassifierService produces and persists the AI analysis for one article.
type ClassifierService interface {
	Classify(ctx context.Context, articleID string) error
}

// AlertMatcherService evaluates a classified article against active alert
// rules and enqueues notification jobs for matches.
type AlertMatcherService interface {
	MatchAndDispatch(ctx context.Context, article *domain.Article) (*MatchResult, error)
}

// StorylineClustererService runs one clustering cycle over recent
// unclustered articles.
type StorylineClustererService interface {
	ClusterOnce(ctx context.Context) (*ClusterResult, error)
}

// CollectionResult summarizes one collection cycle.
type CollectionResult struct {
	ProcessedCount  int
	CreatedCount    int
	DuplicateCount  int
	FilteredCount   int
	FailedFeeds     int
	BackfilledCount int
}

// MatchResult summarizes one alert-matching pass for a single article.
type MatchResult struct {
	RuleCount     int
	MatchedCount  int
	EnqueuedCount int
	SkippedCount  int
	ErrorCount    int
}

// ClusterResult summarizes one clustering cycle.
type ClusterResult struct {
	BatchSize     int
	GroupCount    int
	CreatedCount  int
	MergedCount   int
	LinkedCount   int
	SkippedGroups int
}
