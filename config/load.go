package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"newswatch/domain"
)

// LoadConfig builds the configuration from defaults and overrides provided
// via environment variables.
func LoadConfig() (*Config, error) {
	config := defaultConfig()

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            9300,
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "newswatch",
			Name:            "newswatch",
			SSLMode:         "disable",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Collector: CollectorConfig{
			Interval:      5 * time.Minute,
			FeedDelay:     2 * time.Second,
			FetchTimeout:  30 * time.Second,
			HostInterval:  2 * time.Second,
			UserAgent:     "newswatch/1.0 (+https://newswatch.example.com/bot)",
			Keywords:      defaultKeywords(),
			Feeds:         defaultFeeds(),
			BackfillAge:   30 * time.Minute,
			BackfillLimit: 20,
		},
		Classifier: ClassifierConfig{
			Endpoint:  "https://api.openai.com/v1/chat/completions",
			Model:     "gpt-4o-mini",
			Timeout:   60 * time.Second,
			Workers:   3,
			QueueSize: 256,
		},
		Clusterer: ClustererConfig{
			Interval:   time.Hour,
			Window:     7 * 24 * time.Hour,
			BatchLimit: 100,
			MinBatch:   3,
			Timeout:    120 * time.Second,
		},
		Queue: QueueConfig{
			RedisURL:    "redis://localhost:6379",
			StreamKey:   "newswatch:jobs:notifications",
			Attempts:    3,
			BackoffBase: 60 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			BaseDelay:     time.Second,
			MaxDelay:      30 * time.Second,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		},
	}
}

func defaultKeywords() []string {
	return []string{
		"trump",
		"maga",
		"truth social",
		"mar-a-lago",
		"white house",
	}
}

func defaultFeeds() []domain.FeedSource {
	return []domain.FeedSource{
		{URL: "https://feeds.bbci.co.uk/news/world/rss.xml", Source: "BBC News", Bias: domain.BiasCenter},
		{URL: "https://rss.politico.com/politics-news.xml", Source: "Politico", Bias: domain.BiasCenter},
		{URL: "https://www.theguardian.com/us-news/rss", Source: "The Guardian", Bias: domain.BiasLeft},
		{URL: "https://moxie.foxnews.com/google-publisher/politics.xml", Source: "Fox News", Bias: domain.BiasRight},
		{URL: "https://thehill.com/feed/", Source: "The Hill", Bias: domain.BiasCenter},
	}
}

func loadFromEnv(config *Config) error {
	if err := loadServerConfig(&config.Server); err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}

	if err := loadDatabaseConfig(&config.Database); err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	if err := loadCollectorConfig(&config.Collector); err != nil {
		return fmt.Errorf("failed to load collector config: %w", err)
	}

	if err := loadClassifierConfig(&config.Classifier); err != nil {
		return fmt.Errorf("failed to load classifier config: %w", err)
	}

	if err := loadClustererConfig(&config.Clusterer); err != nil {
		return fmt.Errorf("failed to load clusterer config: %w", err)
	}

	if err := loadQueueConfig(&config.Queue); err != nil {
		return fmt.Errorf("failed to load queue config: %w", err)
	}

	if err := loadRetryConfig(&config.Retry); err != nil {
		return fmt.Errorf("failed to load retry config: %w", err)
	}

	return nil
}

func loadServerConfig(cfg *ServerConfig) error {
	var err error

	if cfg.Port, err = parseIntEnv("SERVER_PORT", cfg.Port); err != nil {
		return err
	}

	if cfg.ShutdownTimeout, err = parseDurationEnv("SERVER_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}

	if cfg.ReadTimeout, err = parseDurationEnv("SERVER_READ_TIMEOUT", cfg.ReadTimeout); err != nil {
		return err
	}

	if cfg.WriteTimeout, err = parseDurationEnv("SERVER_WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return err
	}

	return nil
}

func loadDatabaseConfig(cfg *DatabaseConfig) error {
	var err error

	cfg.Host = stringEnv("DB_HOST", cfg.Host)
	cfg.User = stringEnv("DB_USER", cfg.User)
	cfg.Password = stringEnv("DB_PASSWORD", cfg.Password)
	cfg.Name = stringEnv("DB_NAME", cfg.Name)
	cfg.SSLMode = stringEnv("DB_SSL_MODE", cfg.SSLMode)

	if cfg.Port, err = parseIntEnv("DB_PORT", cfg.Port); err != nil {
		return err
	}

	maxConns, err := parseIntEnv("DB_MAX_CONNS", int(cfg.MaxConns))
	if err != nil {
		return err
	}
	cfg.MaxConns = int32(maxConns)

	minConns, err := parseIntEnv("DB_MIN_CONNS", int(cfg.MinConns))
	if err != nil {
		return err
	}
	cfg.MinConns = int32(minConns)

	if cfg.MaxConnLifetime, err = parseDurationEnv("DB_MAX_CONN_LIFETIME", cfg.MaxConnLifetime); err != nil {
		return err
	}

	if cfg.MaxConnIdleTime, err = parseDurationEnv("DB_MAX_CONN_IDLE_TIME", cfg.MaxConnIdleTime); err != nil {
		return err
	}

	return nil
}

func loadCollectorConfig(cfg *CollectorConfig) error {
	var err error

	if cfg.Interval, err = parseDurationEnv("COLLECTOR_INTERVAL", cfg.Interval); err != nil {
		return err
	}

	if cfg.FeedDelay, err = parseDurationEnv("COLLECTOR_FEED_DELAY", cfg.FeedDelay); err != nil {
		return err
	}

	if cfg.FetchTimeout, err = parseDurationEnv("COLLECTOR_FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return err
	}

	if cfg.HostInterval, err = parseDurationEnv("COLLECTOR_HOST_INTERVAL", cfg.HostInterval); err != nil {
		return err
	}

	cfg.UserAgent = stringEnv("COLLECTOR_USER_AGENT", cfg.UserAgent)

	if raw := os.Getenv("COLLECTOR_KEYWORDS"); raw != "" {
		keywords := strings.Split(raw, ",")
		cfg.Keywords = cfg.Keywords[:0]
		for _, kw := range keywords {
			if kw = strings.TrimSpace(kw); kw != "" {
				cfg.Keywords = append(cfg.Keywords, kw)
			}
		}
	}

	if raw := os.Getenv("COLLECTOR_FEEDS"); raw != "" {
		var feeds []domain.FeedSource
		if err := json.Unmarshal([]byte(raw), &feeds); err != nil {
			return fmt.Errorf("invalid COLLECTOR_FEEDS: %w", err)
		}
		cfg.Feeds = feeds
	}

	if cfg.BackfillAge, err = parseDurationEnv("COLLECTOR_BACKFILL_AGE", cfg.BackfillAge); err != nil {
		return err
	}

	if cfg.BackfillLimit, err = parseIntEnv("COLLECTOR_BACKFILL_LIMIT", cfg.BackfillLimit); err != nil {
		return err
	}

	return nil
}

func loadClassifierConfig(cfg *ClassifierConfig) error {
	var err error

	cfg.Endpoint = stringEnv("LLM_ENDPOINT", cfg.Endpoint)
	cfg.APIKey = stringEnv("LLM_API_KEY", cfg.APIKey)
	cfg.Model = stringEnv("LLM_MODEL", cfg.Model)

	if cfg.Timeout, err = parseDurationEnv("LLM_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	if cfg.Workers, err = parseIntEnv("CLASSIFIER_WORKERS", cfg.Workers); err != nil {
		return err
	}

	if cfg.QueueSize, err = parseIntEnv("CLASSIFIER_QUEUE_SIZE", cfg.QueueSize); err != nil {
		return err
	}

	return nil
}

func loadClustererConfig(cfg *ClustererConfig) error {
	var err error

	if cfg.Interval, err = parseDurationEnv("CLUSTERER_INTERVAL", cfg.Interval); err != nil {
		return err
	}

	if cfg.Window, err = parseDurationEnv("CLUSTERER_WINDOW", cfg.Window); err != nil {
		return err
	}

	if cfg.BatchLimit, err = parseIntEnv("CLUSTERER_BATCH_LIMIT", cfg.BatchLimit); err != nil {
		return err
	}

	if cfg.MinBatch, err = parseIntEnv("CLUSTERER_MIN_BATCH", cfg.MinBatch); err != nil {
		return err
	}

	if cfg.Timeout, err = parseDurationEnv("CLUSTERER_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	return nil
}

func loadQueueConfig(cfg *QueueConfig) error {
	var err error

	cfg.RedisURL = stringEnv("QUEUE_REDIS_URL", cfg.RedisURL)
	cfg.StreamKey = stringEnv("QUEUE_STREAM_KEY", cfg.StreamKey)

	if cfg.Attempts, err = parseIntEnv("QUEUE_ATTEMPTS", cfg.Attempts); err != nil {
		return err
	}

	if cfg.BackoffBase, err = parseDurationEnv("QUEUE_BACKOFF_BASE", cfg.BackoffBase); err != nil {
		return err
	}

	return nil
}

func loadRetryConfig(cfg *RetryConfig) error {
	var err error

	if cfg.MaxAttempts, err = parseIntEnv("RETRY_MAX_ATTEMPTS", cfg.MaxAttempts); err != nil {
		return err
	}

	if cfg.BaseDelay, err = parseDurationEnv("RETRY_BASE_DELAY", cfg.BaseDelay); err != nil {
		return err
	}

	if cfg.MaxDelay, err = parseDurationEnv("RETRY_MAX_DELAY", cfg.MaxDelay); err != nil {
		return err
	}

	if cfg.BackoffFactor, err = parseFloatEnv("RETRY_BACKOFF_FACTOR", cfg.BackoffFactor); err != nil {
		return err
	}

	if cfg.JitterFactor, err = parseFloatEnv("RETRY_JITTER_FACTOR", cfg.JitterFactor); err != nil {
		return err
	}

	return nil
}

func stringEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return value, nil
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return value, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return value, nil
}
