package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"golang-market-intel/internal/entity"
	"golang-market-intel/internal/pipeline/config"
	"golang-market-intel/internal/pipeline/dto"
	"golang-market-intel/internal/pipeline/repository"
	"golang-market-intel/pkg/common"
	"golang-market-intel/pkg/logger"
	"golang-market-intel/pkg/telegram"
	"golang-market-intel/pkg/utils"
)

// BrainStats is a snapshot of the analysis engine's cumulative counters.
type BrainStats struct {
	PostsAnalyzed    int64 `json:"posts_analyzed"`
	EntitiesUpserted int64 `json:"entities_upserted"`
	ScoresCreated    int64 `json:"scores_created"`
	SynthesisRuns    int64 `json:"synthesis_runs"`
	SignalsCreated   int64 `json:"signals_created"`
	SignalsDiscarded int64 `json:"signals_discarded"`
}

// BrainService is the deep-analysis engine. Two independent cadences share the
// same datastore: a continuous per-post loop (entity extraction and sentiment
// scoring) and a wall-clock synthesis loop (cross-source themes and signals).
type BrainService interface {
	// ProcessPosts analyzes one batch of unanalyzed filtered posts and
	// returns how many it pulled, zero meaning nothing was waiting.
	ProcessPosts(ctx context.Context) int
	// RunSynthesis aggregates the trailing window into themes and signals.
	// An empty window degrades to an empty result, never an error.
	RunSynthesis(ctx context.Context)
	Stats() BrainStats
}

// NewBrainService creates a new BrainService.
func NewBrainService(
	cfg *config.Config,
	intel repository.IntelligenceRepository,
	filteredRepo repository.FilteredPostRepository,
	entityRepo repository.MarketEntityRepository,
	scoreRepo repository.SentimentScoreRepository,
	signalRepo repository.SignalRepository,
	correlationRepo repository.CorrelationRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
) BrainService {
	return &brainService{
		cfg:             cfg,
		intel:           intel,
		filteredRepo:    filteredRepo,
		entityRepo:      entityRepo,
		scoreRepo:       scoreRepo,
		signalRepo:      signalRepo,
		correlationRepo: correlationRepo,
		notifier:        notifier,
		logger:          log,
	}
}

type brainService struct {
	cfg             *config.Config
	intel           repository.IntelligenceRepository
	filteredRepo    repository.FilteredPostRepository
	entityRepo      repository.MarketEntityRepository
	scoreRepo       repository.SentimentScoreRepository
	signalRepo      repository.SignalRepository
	correlationRepo repository.CorrelationRepository
	notifier        telegram.Notifier
	logger          *logger.Logger

	postsAnalyzed    atomic.Int64
	entitiesUpserted atomic.Int64
	scoresCreated    atomic.Int64
	synthesisRuns    atomic.Int64
	signalsCreated   atomic.Int64
	signalsDiscarded atomic.Int64
}

func (s *brainService) Stats() BrainStats {
	return BrainStats{
		PostsAnalyzed:    s.postsAnalyzed.Load(),
		EntitiesUpserted: s.entitiesUpserted.Load(),
		ScoresCreated:    s.scoresCreated.Load(),
		SynthesisRuns:    s.synthesisRuns.Load(),
		SignalsCreated:   s.signalsCreated.Load(),
		SignalsDiscarded: s.signalsDiscarded.Load(),
	}
}

func (s *brainService) ProcessPosts(ctx context.Context) int {
	posts, err := s.filteredRepo.FindUnanalyzed(ctx, s.cfg.Brain.BatchSize)
	if err != nil {
		s.logger.Error("Failed to fetch unanalyzed posts", logger.ErrorField(err))
		return 0
	}

	for i := range posts {
		if !utils.ShouldContinue(ctx, s.logger) {
			return i
		}
		s.analyzePost(ctx, &posts[i])
	}
	return len(posts)
}

// analyzePost runs extraction then scoring for one post. Either call failing
// degrades to an empty result for that call only, and the post is marked
// analyzed at the end regardless: the transition happens at most once and is
// never retried.
func (s *brainService) analyzePost(ctx context.Context, post *entity.FilteredPost) {
	content := ""
	if post.RawPost != nil {
		content = post.RawPost.Content
	}

	extracted, err := s.intel.ExtractEntities(ctx, content)
	if err != nil {
		s.logger.Error("Entity extraction failed",
			logger.ErrorField(err),
			logger.Field("filtered_post_id", post.ID),
		)
		extracted = nil
	}

	byName := s.upsertEntities(ctx, extracted)

	if len(extracted) > 0 {
		s.scoreEntities(ctx, post, content, extracted, byName)
	}

	if err := s.filteredRepo.MarkAnalyzed(ctx, post.ID); err != nil {
		s.logger.Error("Failed to mark post analyzed",
			logger.ErrorField(err),
			logger.Field("filtered_post_id", post.ID),
		)
		return
	}
	s.postsAnalyzed.Add(1)
}

// upsertEntities persists extracted entities plus their second-order
// exposures, resolving missing tickers through the correlation lookup. The
// returned map resolves sentiment results by entity name.
func (s *brainService) upsertEntities(ctx context.Context, extracted []dto.ExtractedEntity) map[string]*entity.MarketEntity {
	byName := make(map[string]*entity.MarketEntity, len(extracted))

	for _, ext := range extracted {
		if ext.Name == "" {
			continue
		}
		entityType := entity.ParseEntityType(ext.Type)

		ticker := ext.Ticker
		related := ext.RelatedTickers
		if ticker == "" {
			if corr, err := s.correlationRepo.Resolve(ctx, ext.Name, entityType); err == nil {
				ticker = corr.Ticker
				if len(related) == 0 {
					related = corr.RelatedTickers
				}
			}
		}

		for _, effect := range ext.SecondOrder {
			if effect.Ticker != "" && !utils.ContainsString(related, effect.Ticker) {
				related = append(related, effect.Ticker)
			}
			s.upsertSecondOrder(ctx, effect)
		}

		var metadata []byte
		if len(ext.SecondOrder) > 0 {
			metadata, _ = json.Marshal(map[string]interface{}{"second_order": ext.SecondOrder})
		}

		e := &entity.MarketEntity{
			Name:           ext.Name,
			EntityType:     entityType,
			Ticker:         ticker,
			RelatedTickers: related,
			Metadata:       metadata,
		}
		if err := s.entityRepo.Upsert(ctx, e); err != nil {
			s.logger.Error("Failed to upsert entity",
				logger.ErrorField(err),
				logger.StringField("name", ext.Name),
			)
			continue
		}
		s.entitiesUpserted.Add(1)
		byName[ext.Name] = e
	}
	return byName
}

func (s *brainService) upsertSecondOrder(ctx context.Context, effect dto.SecondOrderEffect) {
	if effect.Name == "" {
		return
	}
	e := &entity.MarketEntity{
		Name:       effect.Name,
		EntityType: entity.ParseEntityType(effect.Type),
		Ticker:     effect.Ticker,
	}
	if err := s.entityRepo.Upsert(ctx, e); err != nil {
		s.logger.Error("Failed to upsert second-order entity",
			logger.ErrorField(err),
			logger.StringField("name", effect.Name),
		)
		return
	}
	s.entitiesUpserted.Add(1)
}

func (s *brainService) scoreEntities(ctx context.Context, post *entity.FilteredPost, content string, extracted []dto.ExtractedEntity, byName map[string]*entity.MarketEntity) {
	sentiments, err := s.intel.ScoreSentiment(ctx, content, extracted)
	if err != nil {
		s.logger.Error("Sentiment scoring failed",
			logger.ErrorField(err),
			logger.Field("filtered_post_id", post.ID),
		)
		return
	}

	for _, sent := range sentiments {
		resolved, ok := byName[sent.EntityName]
		if !ok {
			// The provider named an entity outside the extracted set.
			continue
		}

		score := &entity.SentimentScore{
			FilteredPostID: post.ID,
			EntityID:       resolved.ID,
			Sentiment:      utils.Clamp(sent.Sentiment, -1, 1),
			Confidence:     utils.Clamp(sent.Confidence, 0, 1),
			Urgency:        utils.Clamp(sent.Urgency, 0, 1),
			Reasoning:      sent.Mechanism,
			Themes:         sent.Themes,
		}
		if err := s.scoreRepo.Create(ctx, score); err != nil {
			s.logger.Error("Failed to persist sentiment score",
				logger.ErrorField(err),
				logger.StringField("entity", sent.EntityName),
			)
			continue
		}
		s.scoresCreated.Add(1)
	}
}

func (s *brainService) RunSynthesis(ctx context.Context) {
	s.synthesisRuns.Add(1)
	cutoff := time.Now().UTC().Add(-s.cfg.Brain.SynthesisWindow)

	posts, err := s.filteredRepo.FindSince(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to fetch synthesis window", logger.ErrorField(err))
		return
	}
	if len(posts) == 0 {
		s.logger.Debug("Synthesis window empty, nothing to do")
		return
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	scores, err := s.scoreRepo.FindByFilteredPostIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to fetch window scores", logger.ErrorField(err))
		scores = nil
	}

	synthesis, err := s.intel.Synthesize(ctx, posts, scores)
	if err != nil {
		s.logger.Error("Synthesis call failed, zero signals this cycle", logger.ErrorField(err))
		return
	}
	if synthesis.Empty() {
		s.logger.Info("Synthesis surfaced nothing actionable",
			logger.IntField("window_posts", len(posts)))
		return
	}

	candidates, err := s.intel.GenerateSignals(ctx, synthesis)
	if err != nil {
		s.logger.Error("Signal generation failed, zero signals this cycle", logger.ErrorField(err))
		return
	}

	created := 0
	for _, candidate := range candidates {
		if candidate.Conviction < common.MinSignalConviction {
			s.signalsDiscarded.Add(1)
			continue
		}
		if s.persistSignal(ctx, candidate) {
			created++
		}
	}

	active := 0
	if signals, err := s.signalRepo.FindActive(ctx, time.Now().UTC()); err == nil {
		active = len(signals)
	}

	s.logger.Info("Synthesis cycle complete",
		logger.IntField("window_posts", len(posts)),
		logger.IntField("candidates", len(candidates)),
		logger.IntField("signals_created", created),
		logger.IntField("active_signals", active),
	)
}

func (s *brainService) persistSignal(ctx context.Context, candidate dto.CandidateSignal) bool {
	instruments, err := json.Marshal(candidate.Instruments)
	if err != nil {
		s.logger.Error("Failed to marshal signal instruments", logger.ErrorField(err))
		return false
	}
	var evidence []byte
	if len(candidate.Evidence) > 0 {
		evidence, _ = json.Marshal(candidate.Evidence)
	}

	now := time.Now().UTC()
	signal := &entity.Signal{
		SignalType:  candidate.SignalType,
		Instruments: instruments,
		Direction:   candidate.Direction,
		Conviction:  candidate.Conviction,
		TimeHorizon: candidate.TimeHorizon,
		Thesis:      candidate.Thesis,
		Evidence:    evidence,
		ExpiresAt:   now.Add(horizonTTL(candidate.TimeHorizon)),
	}

	if err := s.signalRepo.Create(ctx, signal); err != nil {
		s.logger.Error("Failed to persist signal",
			logger.ErrorField(err),
			logger.StringField("signal_type", candidate.SignalType),
		)
		return false
	}
	s.signalsCreated.Add(1)

	if s.notifier != nil && signal.Conviction >= s.cfg.Telegram.MinConviction {
		if err := s.notifier.SendMessage(telegram.FormatSignalMessage(signal)); err != nil {
			s.logger.Warn("Failed to send signal notification", logger.ErrorField(err))
		}
	}
	return true
}

// horizonTTL maps a signal's time horizon to its validity window.
func horizonTTL(horizon string) time.Duration {
	switch horizon {
	case "intraday":
		return 24 * time.Hour
	case "days":
		return 72 * time.Hour
	case "weeks":
		return 21 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}
