package queue

import (
	"context"
	"sync"

	"golang-market-intel/internal/pipeline/dto"
)

// memoryQueue is an in-process Queue with the same semantics as the Redis
// implementation. Used by tests and single-process local runs where no broker
// is available.
type memoryQueue struct {
	mu     sync.Mutex
	items  []dto.QueuedPost
	pushed int64
	popped int64
}

// NewMemoryQueue creates an in-memory Queue.
func NewMemoryQueue() Queue {
	return &memoryQueue{}
}

func (q *memoryQueue) Push(_ context.Context, posts []dto.QueuedPost) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, posts...)
	q.pushed += int64(len(posts))
	return len(posts), nil
}

func (q *memoryQueue) Pop(_ context.Context, max int) ([]dto.QueuedPost, error) {
	if max <= 0 {
		return nil, nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	n := max
	if n > len(q.items) {
		n = len(q.items)
	}
	if n == 0 {
		return nil, nil
	}

	popped := make([]dto.QueuedPost, n)
	copy(popped, q.items[:n])
	q.items = q.items[n:]
	q.popped += int64(n)
	return popped, nil
}

func (q *memoryQueue) Stats(_ context.Context) (Stats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Depth:       int64(len(q.items)),
		TotalPushed: q.pushed,
		TotalPopped: q.popped,
	}, nil
}
