package common

const (
	// RedisKeyRawPostQueue is the list holding posts between collectors and the
	// relevance filter.
	RedisKeyRawPostQueue = "pipeline.raw_posts"

	// RedisKeyQueuePushed and RedisKeyQueuePopped are cumulative throughput
	// counters for the raw post queue.
	RedisKeyQueuePushed = "pipeline.raw_posts.pushed"
	RedisKeyQueuePopped = "pipeline.raw_posts.popped"
)

// MinSignalConviction is the floor below which candidate signals are discarded
// instead of persisted.
const MinSignalConviction = 0.4
