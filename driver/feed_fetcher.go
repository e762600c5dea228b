package driver

import (
	"context"
	"fmt"
	"net/http"

	"newswatch/config"
	"newswatch/domain"

	"github.com/mmcdole/gofeed"
)

// FeedFetcher retrieves and parses RSS/Atom feeds.
type FeedFetcher struct {
	parser *gofeed.Parser
}

// NewFeedFetcher builds a fetcher with an explicit HTTP timeout; a hung feed
// must not stall the collection cycle beyond its budget.
func NewFeedFetcher(cfg config.CollectorConfig) *FeedFetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent
	parser.Client = &http.Client{
		Timeout: cfg.FetchTimeout,
	}

	return &FeedFetcher{parser: parser}
}

// Fetch downloads and parses one feed. Network and parse failures are folded
// into domain.ErrFeedUnavailable; the caller logs and moves on.
func (f *FeedFetcher) Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFeedUnavailable, feedURL, err)
	}

	return feed, nil
}
