// Package config provides environment-driven configuration with defaults and
// validation for the newswatch pipeline.
package config

import (
	"time"

	"newswatch/domain"
)

type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Collector  CollectorConfig  `json:"collector"`
	Classifier ClassifierConfig `json:"classifier"`
	Clusterer  ClustererConfig  `json:"clusterer"`
	Queue      QueueConfig      `json:"queue"`
	Retry      RetryConfig      `json:"retry"`
}

type ServerConfig struct {
	Port            int           `json:"port" env:"SERVER_PORT" default:"9300"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
}

type DatabaseConfig struct {
	Host            string        `json:"host" env:"DB_HOST" default:"localhost"`
	Port            int           `json:"port" env:"DB_PORT" default:"5432"`
	User            string        `json:"user" env:"DB_USER" default:"newswatch"`
	Password        string        `json:"password" env:"DB_PASSWORD" default:""`
	Name            string        `json:"name" env:"DB_NAME" default:"newswatch"`
	SSLMode         string        `json:"ssl_mode" env:"DB_SSL_MODE" default:"disable"`
	MaxConns        int32         `json:"max_conns" env:"DB_MAX_CONNS" default:"20"`
	MinConns        int32         `json:"min_conns" env:"DB_MIN_CONNS" default:"5"`
	MaxConnLifetime time.Duration `json:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `json:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

type CollectorConfig struct {
	// Interval between scheduled collection cycles.
	Interval time.Duration `json:"interval" env:"COLLECTOR_INTERVAL" default:"5m"`
	// FeedDelay is the mandatory pause between feeds within one cycle. It is
	// an upstream rate-limit throttle, not tunable for throughput.
	FeedDelay    time.Duration `json:"feed_delay" env:"COLLECTOR_FEED_DELAY" default:"2s"`
	FetchTimeout time.Duration `json:"fetch_timeout" env:"COLLECTOR_FETCH_TIMEOUT" default:"30s"`
	// HostInterval is the minimum spacing of requests to a single host.
	HostInterval time.Duration `json:"host_interval" env:"COLLECTOR_HOST_INTERVAL" default:"2s"`
	UserAgent    string        `json:"user_agent" env:"COLLECTOR_USER_AGENT" default:"newswatch/1.0 (+https://newswatch.example.com/bot)"`
	// Keywords gate items into the pipeline; any case-insensitive match passes.
	Keywords []string `json:"keywords" env:"COLLECTOR_KEYWORDS"`
	// Feeds is the source registry. Overridable with COLLECTOR_FEEDS (JSON array).
	Feeds []domain.FeedSource `json:"feeds" env:"COLLECTOR_FEEDS"`
	// BackfillAge is how long an article may stay unclassified before a
	// collection cycle re-enqueues it for classification.
	BackfillAge   time.Duration `json:"backfill_age" env:"COLLECTOR_BACKFILL_AGE" default:"30m"`
	BackfillLimit int           `json:"backfill_limit" env:"COLLECTOR_BACKFILL_LIMIT" default:"20"`
}

type ClassifierConfig struct {
	Endpoint string `json:"endpoint" env:"LLM_ENDPOINT" default:"https://api.openai.com/v1/chat/completions"`
	APIKey   string `json:"api_key" env:"LLM_API_KEY" default:""`
	Model    string `json:"model" env:"LLM_MODEL" default:"gpt-4o-mini"`
	// Timeout applies to each individual model call.
	Timeout time.Duration `json:"timeout" env:"LLM_TIMEOUT" default:"60s"`
	// Workers bounds how many articles are classified concurrently.
	Workers   int `json:"workers" env:"CLASSIFIER_WORKERS" default:"3"`
	QueueSize int `json:"queue_size" env:"CLASSIFIER_QUEUE_SIZE" default:"256"`
}

type ClustererConfig struct {
	Interval time.Duration `json:"interval" env:"CLUSTERER_INTERVAL" default:"1h"`
	// Window bounds how far back unclustered articles are considered.
	Window     time.Duration `json:"window" env:"CLUSTERER_WINDOW" default:"168h"`
	BatchLimit int           `json:"batch_limit" env:"CLUSTERER_BATCH_LIMIT" default:"100"`
	// MinBatch is the minimum unclustered count before a cycle does any work.
	MinBatch int           `json:"min_batch" env:"CLUSTERER_MIN_BATCH" default:"3"`
	Timeout  time.Duration `json:"timeout" env:"CLUSTERER_TIMEOUT" default:"120s"`
}

type QueueConfig struct {
	RedisURL  string `json:"redis_url" env:"QUEUE_REDIS_URL" default:"redis://localhost:6379"`
	StreamKey string `json:"stream_key" env:"QUEUE_STREAM_KEY" default:"newswatch:jobs:notifications"`
	// Attempts and BackoffBase ride along in the job envelope for the
	// consumer's retry policy.
	Attempts    int           `json:"attempts" env:"QUEUE_ATTEMPTS" default:"3"`
	BackoffBase time.Duration `json:"backoff_base" env:"QUEUE_BACKOFF_BASE" default:"60s"`
}

type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts" env:"RETRY_MAX_ATTEMPTS" default:"3"`
	BaseDelay     time.Duration `json:"base_delay" env:"RETRY_BASE_DELAY" default:"1s"`
	MaxDelay      time.Duration `json:"max_delay" env:"RETRY_MAX_DELAY" default:"30s"`
	BackoffFactor float64       `json:"backoff_factor" env:"RETRY_BACKOFF_FACTOR" default:"2.0"`
	JitterFactor  float64       `json:"jitter_factor" env:"RETRY_JITTER_FACTOR" default:"0.1"`
}
