package scraper

import (
	"context"
	"time"

	"spoilerscraper/pkg/checkpoint"
	"spoilerscraper/pkg/models"
	"spoilerscraper/pkg/ratelimit"
	"spoilerscraper/pkg/twitter"
)

// SearchClient defines the endpoint operations the collector needs
type SearchClient interface {
	Search(ctx context.Context, params twitter.SearchParams) ([]twitter.Status, error)
	RateLimitStatus(ctx context.Context) ([]ratelimit.Limit, error)
}

// BatchWriter persists one collected page
type BatchWriter interface {
	WriteBatch(batch models.Batch) (string, error)
}

// Reporter receives progress as pages are collected
type Reporter interface {
	PageCollected(progress Progress, state checkpoint.State)
	RateLimited(resource string, wait time.Duration)
}

type nopReporter struct{}

func (nopReporter) PageCollected(Progress, checkpoint.State) {}
func (nopReporter) RateLimited(string, time.Duration)        {}
