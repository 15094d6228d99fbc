package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-market-intel/internal/pipeline/dto"
	"golang-market-intel/pkg/common"
	"golang-market-intel/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// redisQueue is a Queue backed by a Redis list. RPUSH/LPOP keeps FIFO order
// within the list; push/pop totals live in separate counter keys so multiple
// processes share them.
type redisQueue struct {
	client *redis.Client
	key    string
	logger *logger.Logger
}

// NewRedisQueue creates a Queue on the shared raw-post list.
func NewRedisQueue(client *redis.Client, log *logger.Logger) Queue {
	return &redisQueue{
		client: client,
		key:    common.RedisKeyRawPostQueue,
		logger: log,
	}
}

func (q *redisQueue) Push(ctx context.Context, posts []dto.QueuedPost) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	values := make([]interface{}, 0, len(posts))
	for _, post := range posts {
		payload, err := json.Marshal(post)
		if err != nil {
			q.logger.Error("Failed to marshal queued post", logger.ErrorField(err), logger.StringField("post_id", post.ID))
			continue
		}
		values = append(values, payload)
	}
	if len(values) == 0 {
		return 0, nil
	}

	if err := q.client.RPush(ctx, q.key, values...).Err(); err != nil {
		return 0, fmt.Errorf("failed to push posts to queue: %w", err)
	}
	if err := q.client.IncrBy(ctx, common.RedisKeyQueuePushed, int64(len(values))).Err(); err != nil {
		q.logger.Warn("Failed to bump push counter", logger.ErrorField(err))
	}
	return len(values), nil
}

func (q *redisQueue) Pop(ctx context.Context, max int) ([]dto.QueuedPost, error) {
	if max <= 0 {
		return nil, nil
	}

	raw, err := q.client.LPopCount(ctx, q.key, max).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop posts from queue: %w", err)
	}

	posts := make([]dto.QueuedPost, 0, len(raw))
	for _, item := range raw {
		var post dto.QueuedPost
		if err := json.Unmarshal([]byte(item), &post); err != nil {
			q.logger.Error("Dropping malformed queue item", logger.ErrorField(err))
			continue
		}
		posts = append(posts, post)
	}

	if len(raw) > 0 {
		if err := q.client.IncrBy(ctx, common.RedisKeyQueuePopped, int64(len(raw))).Err(); err != nil {
			q.logger.Warn("Failed to bump pop counter", logger.ErrorField(err))
		}
	}
	return posts, nil
}

func (q *redisQueue) Stats(ctx context.Context) (Stats, error) {
	depth, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read queue depth: %w", err)
	}
	pushed, _ := q.client.Get(ctx, common.RedisKeyQueuePushed).Int64()
	popped, _ := q.client.Get(ctx, common.RedisKeyQueuePopped).Int64()

	return Stats{
		Depth:       depth,
		TotalPushed: pushed,
		TotalPopped: popped,
	}, nil
}
