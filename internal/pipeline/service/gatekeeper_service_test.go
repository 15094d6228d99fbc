package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-market-intel/internal/entity"
	"golang-market-intel/internal/pipeline/config"
	"golang-market-intel/internal/pipeline/dto"
	"golang-market-intel/internal/pipeline/queue"
	"golang-market-intel/pkg/logger"
)

func gatekeeperTestConfig() *config.Config {
	return &config.Config{
		Gatekeeper: config.Gatekeeper{BatchSize: 10},
	}
}

func queuedPost(platform, sourceID string) dto.QueuedPost {
	return dto.QueuedPost{
		ID:        dto.PostID(platform, sourceID),
		Platform:  platform,
		Author:    "tester",
		Content:   "content for " + sourceID,
		URL:       "https://example.com/" + sourceID,
		ScrapedAt: time.Now().UTC(),
	}
}

func relevantVerdict(score float64) dto.PostVerdict {
	return dto.PostVerdict{
		Relevant:       true,
		RelevanceScore: score,
		Urgency:        "MEDIUM",
		Category:       "earnings",
		Reasoning:      "quarterly results",
	}
}

func TestGatekeeperProcessBatchEveryPostGetsRawRecord(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()
	rawRepo := newFakeRawPostRepo()
	intel := &fakeIntelligence{
		verdicts: []dto.PostVerdict{
			relevantVerdict(0.9),
			{Relevant: false, Reasoning: "crypto spam"},
			relevantVerdict(0.7),
		},
	}
	svc := NewGatekeeperService(gatekeeperTestConfig(), q, intel, rawRepo, logger.NewNop())

	_, err := q.Push(ctx, []dto.QueuedPost{
		queuedPost("twitter", "1"),
		queuedPost("twitter", "2"),
		queuedPost("reddit", "3"),
	})
	require.NoError(t, err)

	n := svc.ProcessBatch(ctx)
	assert.Equal(t, 3, n)

	assert.Len(t, rawRepo.rawByPostID, 3)
	assert.Len(t, rawRepo.filtered, 2)

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.Batches)
	assert.Equal(t, int64(3), stats.Processed)
	assert.Equal(t, int64(2), stats.Kept)
	assert.Equal(t, int64(1), stats.Killed)
}

func TestGatekeeperNoRelevanceByOmission(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()
	rawRepo := newFakeRawPostRepo()
	// Five posts in, three verdicts back: the last two must be killed.
	intel := &fakeIntelligence{
		verdicts: []dto.PostVerdict{
			relevantVerdict(0.8),
			relevantVerdict(0.8),
			relevantVerdict(0.8),
		},
	}
	svc := NewGatekeeperService(gatekeeperTestConfig(), q, intel, rawRepo, logger.NewNop())

	var posts []dto.QueuedPost
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		posts = append(posts, queuedPost("twitter", id))
	}
	_, err := q.Push(ctx, posts)
	require.NoError(t, err)

	n := svc.ProcessBatch(ctx)
	assert.Equal(t, 5, n)

	assert.Len(t, rawRepo.rawByPostID, 5)
	assert.Len(t, rawRepo.filtered, 3)

	stats := svc.Stats()
	assert.Equal(t, int64(3), stats.Kept)
	assert.Equal(t, int64(2), stats.Killed)
}

func TestGatekeeperClassificationFailureKillsBatchKeepsAuditTrail(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()
	rawRepo := newFakeRawPostRepo()
	intel := &fakeIntelligence{classifyErr: errors.New("upstream timeout")}
	svc := NewGatekeeperService(gatekeeperTestConfig(), q, intel, rawRepo, logger.NewNop())

	_, err := q.Push(ctx, []dto.QueuedPost{
		queuedPost("twitter", "1"),
		queuedPost("reddit", "2"),
	})
	require.NoError(t, err)

	n := svc.ProcessBatch(ctx)
	assert.Equal(t, 2, n)

	assert.Len(t, rawRepo.rawByPostID, 2)
	assert.Empty(t, rawRepo.filtered)

	stats := svc.Stats()
	assert.Equal(t, int64(0), stats.Kept)
	assert.Equal(t, int64(2), stats.Killed)
	assert.InDelta(t, 1.0, stats.KillRate, 0.001)
}

func TestGatekeeperExtraVerdictsAreDropped(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()
	rawRepo := newFakeRawPostRepo()
	intel := &fakeIntelligence{
		verdicts: []dto.PostVerdict{
			{Relevant: false},
			relevantVerdict(0.9),
			relevantVerdict(0.9),
		},
	}
	svc := NewGatekeeperService(gatekeeperTestConfig(), q, intel, rawRepo, logger.NewNop())

	_, err := q.Push(ctx, []dto.QueuedPost{queuedPost("twitter", "1")})
	require.NoError(t, err)

	n := svc.ProcessBatch(ctx)
	assert.Equal(t, 1, n)
	assert.Len(t, rawRepo.rawByPostID, 1)
	assert.Empty(t, rawRepo.filtered)
}

func TestGatekeeperDuplicatePostIDWritesOnce(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()
	rawRepo := newFakeRawPostRepo()
	intel := &fakeIntelligence{
		verdicts: []dto.PostVerdict{
			relevantVerdict(0.9),
			relevantVerdict(0.9),
			relevantVerdict(0.9),
		},
	}
	svc := NewGatekeeperService(gatekeeperTestConfig(), q, intel, rawRepo, logger.NewNop())

	same := queuedPost("twitter", "dup")
	_, err := q.Push(ctx, []dto.QueuedPost{same, same, same})
	require.NoError(t, err)

	n := svc.ProcessBatch(ctx)
	assert.Equal(t, 3, n)

	assert.Len(t, rawRepo.rawByPostID, 1)
	assert.Len(t, rawRepo.filtered, 1)
}

func TestGatekeeperClampsUnknownEnumsAndScores(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()
	rawRepo := newFakeRawPostRepo()
	intel := &fakeIntelligence{
		verdicts: []dto.PostVerdict{
			{
				Relevant:       true,
				RelevanceScore: 7.5,
				Urgency:        "CRITICAL",
				Category:       "moon_landing",
				Reasoning:      "made up fields",
			},
		},
	}
	svc := NewGatekeeperService(gatekeeperTestConfig(), q, intel, rawRepo, logger.NewNop())

	_, err := q.Push(ctx, []dto.QueuedPost{queuedPost("twitter", "1")})
	require.NoError(t, err)

	svc.ProcessBatch(ctx)

	require.Len(t, rawRepo.filtered, 1)
	filtered := rawRepo.filtered[0]
	assert.Equal(t, 1.0, filtered.RelevanceScore)
	assert.Equal(t, entity.UrgencyLow, filtered.Urgency)
	assert.Equal(t, entity.CategoryOther, filtered.Category)
}

func TestGatekeeperPersistFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueue()
	rawRepo := newFakeRawPostRepo()
	rawRepo.failPostIDs[dto.PostID("twitter", "2")] = true
	intel := &fakeIntelligence{
		verdicts: []dto.PostVerdict{
			relevantVerdict(0.9),
			relevantVerdict(0.9),
			relevantVerdict(0.9),
		},
	}
	svc := NewGatekeeperService(gatekeeperTestConfig(), q, intel, rawRepo, logger.NewNop())

	_, err := q.Push(ctx, []dto.QueuedPost{
		queuedPost("twitter", "1"),
		queuedPost("twitter", "2"),
		queuedPost("twitter", "3"),
	})
	require.NoError(t, err)

	n := svc.ProcessBatch(ctx)
	assert.Equal(t, 3, n)

	assert.Len(t, rawRepo.rawByPostID, 2)
	assert.Len(t, rawRepo.filtered, 2)
	assert.Equal(t, int64(1), svc.Stats().PersistErrors)
}

func TestGatekeeperEmptyQueueReturnsZero(t *testing.T) {
	svc := NewGatekeeperService(gatekeeperTestConfig(), queue.NewMemoryQueue(), &fakeIntelligence{}, newFakeRawPostRepo(), logger.NewNop())
	assert.Equal(t, 0, svc.ProcessBatch(context.Background()))
	assert.Equal(t, int64(0), svc.Stats().Batches)
}
