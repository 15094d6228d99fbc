package service

import (
	"context"
	"sync/atomic"
	"time"

	"golang-market-intel/internal/entity"
	"golang-market-intel/internal/pipeline/config"
	"golang-market-intel/internal/pipeline/dto"
	"golang-market-intel/internal/pipeline/queue"
	"golang-market-intel/internal/pipeline/repository"
	"golang-market-intel/pkg/logger"
	"golang-market-intel/pkg/utils"
)

// missingVerdictReason marks posts the classifier returned no verdict for.
// A shortfall is always treated as not relevant, never relevant by omission.
const missingVerdictReason = "missing verdict from classifier"

// GatekeeperStats is a snapshot of the filter stage's cumulative counters.
type GatekeeperStats struct {
	Batches       int64   `json:"batches"`
	Processed     int64   `json:"processed"`
	Kept          int64   `json:"kept"`
	Killed        int64   `json:"killed"`
	PersistErrors int64   `json:"persist_errors"`
	KillRate      float64 `json:"kill_rate"`
}

// GatekeeperService is the relevance filter: it pops batches from the queue,
// classifies them in one call, records every post as a RawPost for the audit
// trail, and forwards survivors as FilteredPosts.
type GatekeeperService interface {
	// ProcessBatch handles one batch and returns how many posts it consumed,
	// zero meaning the queue was empty.
	ProcessBatch(ctx context.Context) int
	Stats() GatekeeperStats
}

// NewGatekeeperService creates a new GatekeeperService.
func NewGatekeeperService(
	cfg *config.Config,
	q queue.Queue,
	intel repository.IntelligenceRepository,
	rawPostRepo repository.RawPostRepository,
	log *logger.Logger,
) GatekeeperService {
	return &gatekeeperService{
		cfg:         cfg,
		queue:       q,
		intel:       intel,
		rawPostRepo: rawPostRepo,
		logger:      log,
	}
}

type gatekeeperService struct {
	cfg         *config.Config
	queue       queue.Queue
	intel       repository.IntelligenceRepository
	rawPostRepo repository.RawPostRepository
	logger      *logger.Logger

	batches       atomic.Int64
	processed     atomic.Int64
	kept          atomic.Int64
	killed        atomic.Int64
	persistErrors atomic.Int64
}

func (s *gatekeeperService) Stats() GatekeeperStats {
	processed := s.processed.Load()
	killed := s.killed.Load()
	killRate := 0.0
	if processed > 0 {
		killRate = float64(killed) / float64(processed)
	}
	return GatekeeperStats{
		Batches:       s.batches.Load(),
		Processed:     processed,
		Kept:          s.kept.Load(),
		Killed:        killed,
		PersistErrors: s.persistErrors.Load(),
		KillRate:      killRate,
	}
}

func (s *gatekeeperService) ProcessBatch(ctx context.Context) int {
	posts, err := s.queue.Pop(ctx, s.cfg.Gatekeeper.BatchSize)
	if err != nil {
		s.logger.Error("Failed to pop batch from queue", logger.ErrorField(err))
		return 0
	}
	if len(posts) == 0 {
		return 0
	}

	start := time.Now()

	verdicts, err := s.intel.ClassifyPosts(ctx, posts)
	if err != nil {
		// The call failed: the whole batch is killed, but every post still
		// gets its audit record below.
		s.logger.Error("Classification call failed, killing batch",
			logger.ErrorField(err),
			logger.IntField("batch_size", len(posts)),
		)
		verdicts = nil
	}
	verdicts = normalizeVerdicts(verdicts, len(posts))

	kept := 0
	for i, post := range posts {
		if s.persistPost(ctx, post, verdicts[i]) && verdicts[i].Relevant {
			kept++
		}
	}

	s.batches.Add(1)
	s.processed.Add(int64(len(posts)))
	s.kept.Add(int64(kept))
	s.killed.Add(int64(len(posts) - kept))

	s.logger.Info("Gatekeeper batch complete",
		logger.IntField("batch_size", len(posts)),
		logger.IntField("kept", kept),
		logger.IntField("killed", len(posts)-kept),
		logger.DurationField("duration", time.Since(start)),
	)
	return len(posts)
}

// persistPost writes the audit RawPost and, for a relevant verdict, the
// FilteredPost in the same transaction. A persistence failure is counted and
// never aborts the rest of the batch.
func (s *gatekeeperService) persistPost(ctx context.Context, post dto.QueuedPost, verdict dto.PostVerdict) bool {
	raw := &entity.RawPost{
		PostID:      post.ID,
		Platform:    post.Platform,
		Author:      post.Author,
		Content:     utils.CleanToValidUTF8(post.Content),
		URL:         post.URL,
		Metadata:    []byte(post.RawMetadata),
		ScrapedAt:   post.ScrapedAt,
		PublishedAt: post.SourcePublishedAt,
		Processed:   true,
	}

	var filtered *entity.FilteredPost
	if verdict.Relevant {
		filtered = &entity.FilteredPost{
			RelevanceScore: utils.Clamp(verdict.RelevanceScore, 0, 1),
			Urgency:        entity.ParseUrgency(verdict.Urgency),
			Category:       entity.ParseCategory(verdict.Category),
			Reasoning:      verdict.Reasoning,
			FilteredAt:     time.Now().UTC(),
			Analyzed:       false,
		}
	}

	if err := s.rawPostRepo.CreateWithFiltered(ctx, raw, filtered); err != nil {
		s.persistErrors.Add(1)
		s.logger.Error("Failed to persist classified post",
			logger.ErrorField(err),
			logger.StringField("post_id", post.ID),
		)
		return false
	}
	return true
}

// normalizeVerdicts pads or truncates the verdict list to exactly n entries.
// Extra verdicts are dropped; missing ones are filled with not-relevant.
func normalizeVerdicts(verdicts []dto.PostVerdict, n int) []dto.PostVerdict {
	if len(verdicts) > n {
		return verdicts[:n]
	}
	for len(verdicts) < n {
		verdicts = append(verdicts, dto.PostVerdict{
			Relevant:  false,
			Urgency:   string(entity.UrgencyLow),
			Category:  string(entity.CategoryOther),
			Reasoning: missingVerdictReason,
		})
	}
	return verdicts
}
