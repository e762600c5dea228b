package config

import (
	"fmt"

	"newswatch/domain"
)

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Database.MaxConns < cfg.Database.MinConns {
		return fmt.Errorf("database max_conns (%d) must be >= min_conns (%d)",
			cfg.Database.MaxConns, cfg.Database.MinConns)
	}

	if cfg.Collector.Interval <= 0 {
		return fmt.Errorf("collector interval must be positive, got %s", cfg.Collector.Interval)
	}

	if cfg.Collector.FeedDelay < 0 {
		return fmt.Errorf("collector feed delay must not be negative, got %s", cfg.Collector.FeedDelay)
	}

	if len(cfg.Collector.Keywords) == 0 {
		return fmt.Errorf("collector keyword set must not be empty")
	}

	for i, feed := range cfg.Collector.Feeds {
		if feed.URL == "" {
			return fmt.Errorf("feed %d has empty URL", i)
		}
		if feed.Bias != "" && !domain.ValidBias(feed.Bias) {
			return fmt.Errorf("feed %q has invalid bias %q", feed.URL, feed.Bias)
		}
	}

	if cfg.Classifier.Workers <= 0 {
		return fmt.Errorf("classifier workers must be positive, got %d", cfg.Classifier.Workers)
	}

	if cfg.Classifier.QueueSize <= 0 {
		return fmt.Errorf("classifier queue size must be positive, got %d", cfg.Classifier.QueueSize)
	}

	if cfg.Clusterer.MinBatch < 2 {
		return fmt.Errorf("clusterer min batch must be at least 2, got %d", cfg.Clusterer.MinBatch)
	}

	if cfg.Clusterer.BatchLimit < cfg.Clusterer.MinBatch {
		return fmt.Errorf("clusterer batch limit (%d) must be >= min batch (%d)",
			cfg.Clusterer.BatchLimit, cfg.Clusterer.MinBatch)
	}

	if cfg.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry max attempts must be positive, got %d", cfg.Retry.MaxAttempts)
	}

	if cfg.Retry.BackoffFactor < 1.0 {
		return fmt.Errorf("retry backoff factor must be >= 1.0, got %f", cfg.Retry.BackoffFactor)
	}

	return nil
}
