package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"newswatch/config"
	"newswatch/domain"

	"github.com/redis/go-redis/v9"
)

// NotificationQueue produces notification jobs onto a Redis Stream. The
// external dispatcher consumes the stream with at-least-once semantics; the
// attempts/backoff fields ride along in the envelope for its retry policy.
type NotificationQueue struct {
	client      *redis.Client
	streamKey   string
	attempts    int
	backoffBase int64
	logger      *slog.Logger
}

// NewNotificationQueue connects to Redis and returns the producer.
func NewNotificationQueue(cfg config.QueueConfig, logger *slog.Logger) (*NotificationQueue, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationQueue{
		client:      redis.NewClient(opts),
		streamKey:   cfg.StreamKey,
		attempts:    cfg.Attempts,
		backoffBase: int64(cfg.BackoffBase.Seconds()),
		logger:      logger,
	}, nil
}

// Enqueue appends one notification job to the stream.
func (q *NotificationQueue) Enqueue(ctx context.Context, job *domain.NotificationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal notification job: %w", err)
	}

	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streamKey,
		Values: map[string]any{
			"payload":        string(payload),
			"attempts":       q.attempts,
			"backoff":        "exponential",
			"backoff_base_s": q.backoffBase,
			"alert_id":       job.AlertID,
			"article_id":     job.ArticleID,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to enqueue notification job: %w", err)
	}

	q.logger.InfoContext(ctx, "notification job enqueued",
		"message_id", id,
		"alert_id", job.AlertID,
		"article_id", job.ArticleID)

	return nil
}

// Close releases the Redis connection.
func (q *NotificationQueue) Close() error {
	return q.client.Close()
}
