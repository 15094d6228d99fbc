// Package queue decouples collectors from the relevance filter. Ordering is
// FIFO within the broker list only; concurrent producers interleave, so a
// single pop batch may mix posts from unrelated collectors.
package queue

import (
	"context"

	"golang-market-intel/internal/pipeline/dto"
)

// Stats reports queue depth and cumulative throughput.
type Stats struct {
	Depth       int64 `json:"depth"`
	TotalPushed int64 `json:"total_pushed"`
	TotalPopped int64 `json:"total_popped"`
}

// Queue is the broker between collectors (producers) and the filter stage
// (consumer).
type Queue interface {
	// Push appends posts and returns how many were accepted.
	Push(ctx context.Context, posts []dto.QueuedPost) (int, error)
	// Pop removes up to max posts, returning fewer if the queue holds fewer.
	// It never blocks and never errors on underfill.
	Pop(ctx context.Context, max int) ([]dto.QueuedPost, error)
	// Stats returns the current depth and cumulative push/pop counters.
	Stats(ctx context.Context) (Stats, error)
}
