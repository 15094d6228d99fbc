// Package collector defines the contract every source-specific fetcher
// implements and the shared runtime that drives them. A collector owns its
// source's auth, pagination, and parsing; the runtime owns dedup, rate
// limiting, queue handoff, and failure isolation.
package collector

import (
	"context"

	"golang-market-intel/internal/pipeline/dto"
)

// Collector fetches source-specific content and emits posts in the shared
// wire schema. Scrape returns zero or more posts; post IDs must be
// "{platform}_{sourceId}" so downstream deduplication holds.
type Collector interface {
	Platform() string
	Scrape(ctx context.Context) ([]dto.QueuedPost, error)
}
