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
	"golang-market-intel/pkg/logger"
)

func brainTestConfig() *config.Config {
	return &config.Config{
		Brain: config.Brain{
			BatchSize:       10,
			SynthesisWindow: 4 * time.Hour,
		},
		Telegram: config.Telegram{MinConviction: 0.7},
	}
}

type brainFixture struct {
	intel           *fakeIntelligence
	filteredRepo    *fakeFilteredRepo
	entityRepo      *fakeEntityRepo
	scoreRepo       *fakeScoreRepo
	signalRepo      *fakeSignalRepo
	correlationRepo *fakeCorrelationRepo
	notifier        *fakeNotifier
	svc             BrainService
}

func newBrainFixture(intel *fakeIntelligence) *brainFixture {
	f := &brainFixture{
		intel:           intel,
		filteredRepo:    newFakeFilteredRepo(),
		entityRepo:      newFakeEntityRepo(),
		scoreRepo:       &fakeScoreRepo{},
		signalRepo:      &fakeSignalRepo{},
		correlationRepo: &fakeCorrelationRepo{byName: map[string]dto.Correlation{}},
		notifier:        &fakeNotifier{},
	}
	f.svc = NewBrainService(
		brainTestConfig(),
		intel,
		f.filteredRepo,
		f.entityRepo,
		f.scoreRepo,
		f.signalRepo,
		f.correlationRepo,
		f.notifier,
		logger.NewNop(),
	)
	return f
}

func (f *brainFixture) addFilteredPost(content string) *entity.FilteredPost {
	return f.filteredRepo.add(&entity.FilteredPost{
		RawPost:        &entity.RawPost{Content: content},
		RelevanceScore: 0.8,
		Urgency:        entity.UrgencyMedium,
		Category:       entity.CategoryEarnings,
		FilteredAt:     time.Now().UTC(),
	})
}

func TestBrainSameEntityAcrossPostsUpsertsOnce(t *testing.T) {
	ctx := context.Background()
	apple := dto.ExtractedEntity{Name: "Apple Inc.", Type: "COMPANY", Ticker: "AAPL"}
	intel := &fakeIntelligence{
		entitiesByContent: map[string][]dto.ExtractedEntity{
			"post one about apple": {apple},
			"post two about apple": {apple},
		},
		sentiments: []dto.EntitySentiment{
			{EntityName: "Apple Inc.", Sentiment: 0.6, Confidence: 0.9, Urgency: 0.3},
		},
	}
	f := newBrainFixture(intel)
	f.addFilteredPost("post one about apple")
	f.addFilteredPost("post two about apple")

	n := f.svc.ProcessPosts(ctx)
	assert.Equal(t, 2, n)

	assert.Len(t, f.entityRepo.byKey, 1)
	require.Len(t, f.scoreRepo.scores, 2)

	// Both scores resolve to the one canonical entity row.
	assert.Equal(t, f.scoreRepo.scores[0].EntityID, f.scoreRepo.scores[1].EntityID)
	assert.NotEqual(t, f.scoreRepo.scores[0].FilteredPostID, f.scoreRepo.scores[1].FilteredPostID)
}

func TestBrainAnalyzedIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newBrainFixture(&fakeIntelligence{})
	f.addFilteredPost("some post")

	assert.Equal(t, 1, f.svc.ProcessPosts(ctx))
	// Second pass finds nothing: analyzed never flips back.
	assert.Equal(t, 0, f.svc.ProcessPosts(ctx))
	assert.Equal(t, int64(1), f.svc.Stats().PostsAnalyzed)
}

func TestBrainExtractionFailureStillMarksAnalyzed(t *testing.T) {
	ctx := context.Background()
	f := newBrainFixture(&fakeIntelligence{extractErr: errors.New("upstream down")})
	post := f.addFilteredPost("some post")

	assert.Equal(t, 1, f.svc.ProcessPosts(ctx))

	assert.True(t, f.filteredRepo.posts[post.ID].Analyzed)
	assert.Empty(t, f.entityRepo.byKey)
	assert.Empty(t, f.scoreRepo.scores)
}

func TestBrainCorrelationResolvesMissingTicker(t *testing.T) {
	ctx := context.Background()
	intel := &fakeIntelligence{
		entitiesByContent: map[string][]dto.ExtractedEntity{
			"tsmc capacity chatter": {{Name: "TSMC", Type: "COMPANY"}},
		},
	}
	f := newBrainFixture(intel)
	f.correlationRepo.byName["TSMC"] = dto.Correlation{Ticker: "TSM", RelatedTickers: []string{"SOXX"}}
	f.addFilteredPost("tsmc capacity chatter")

	f.svc.ProcessPosts(ctx)

	stored, err := f.entityRepo.FindByNameAndType(ctx, "TSMC", entity.EntityTypeCompany)
	require.NoError(t, err)
	assert.Equal(t, "TSM", stored.Ticker)
	assert.Equal(t, []string{"SOXX"}, []string(stored.RelatedTickers))
}

func TestBrainUnknownSentimentEntityIsSkipped(t *testing.T) {
	ctx := context.Background()
	intel := &fakeIntelligence{
		entitiesByContent: map[string][]dto.ExtractedEntity{
			"apple post": {{Name: "Apple Inc.", Type: "COMPANY", Ticker: "AAPL"}},
		},
		sentiments: []dto.EntitySentiment{
			{EntityName: "Apple Inc.", Sentiment: 0.5, Confidence: 0.8},
			{EntityName: "Some Hallucinated Corp", Sentiment: -0.9, Confidence: 0.9},
		},
	}
	f := newBrainFixture(intel)
	f.addFilteredPost("apple post")

	f.svc.ProcessPosts(ctx)

	require.Len(t, f.scoreRepo.scores, 1)
	assert.Equal(t, 0.5, f.scoreRepo.scores[0].Sentiment)
}

func TestBrainSentimentValuesAreClamped(t *testing.T) {
	ctx := context.Background()
	intel := &fakeIntelligence{
		entitiesByContent: map[string][]dto.ExtractedEntity{
			"apple post": {{Name: "Apple Inc.", Type: "COMPANY", Ticker: "AAPL"}},
		},
		sentiments: []dto.EntitySentiment{
			{EntityName: "Apple Inc.", Sentiment: -3.0, Confidence: 1.8, Urgency: -0.2},
		},
	}
	f := newBrainFixture(intel)
	f.addFilteredPost("apple post")

	f.svc.ProcessPosts(ctx)

	require.Len(t, f.scoreRepo.scores, 1)
	score := f.scoreRepo.scores[0]
	assert.Equal(t, -1.0, score.Sentiment)
	assert.Equal(t, 1.0, score.Confidence)
	assert.Equal(t, 0.0, score.Urgency)
}

func TestBrainSecondOrderEffectsArePersisted(t *testing.T) {
	ctx := context.Background()
	intel := &fakeIntelligence{
		entitiesByContent: map[string][]dto.ExtractedEntity{
			"supplier fire": {{
				Name:   "Foxconn",
				Type:   "COMPANY",
				Ticker: "2317.TW",
				SecondOrder: []dto.SecondOrderEffect{
					{Name: "Apple Inc.", Type: "COMPANY", Ticker: "AAPL", Mechanism: "assembly dependency"},
				},
			}},
		},
	}
	f := newBrainFixture(intel)
	f.addFilteredPost("supplier fire")

	f.svc.ProcessPosts(ctx)

	assert.Len(t, f.entityRepo.byKey, 2)
	foxconn, err := f.entityRepo.FindByNameAndType(ctx, "Foxconn", entity.EntityTypeCompany)
	require.NoError(t, err)
	assert.Contains(t, []string(foxconn.RelatedTickers), "AAPL")
}

func TestBrainSynthesisEmptyWindowIsNotAnError(t *testing.T) {
	ctx := context.Background()
	intel := &fakeIntelligence{}
	f := newBrainFixture(intel)

	f.svc.RunSynthesis(ctx)

	assert.Equal(t, 0, intel.synthesizeCalls)
	assert.Empty(t, f.signalRepo.signals)
	assert.Equal(t, int64(1), f.svc.Stats().SynthesisRuns)
}

func TestBrainSynthesisConvictionFloor(t *testing.T) {
	ctx := context.Background()
	intel := &fakeIntelligence{
		synthesis: &dto.SynthesisResult{
			Themes: []dto.SynthesisTheme{{Theme: "AI capex", PatternType: "convergence", Strength: 0.8}},
		},
		candidates: []dto.CandidateSignal{
			{SignalType: "directional", Direction: "long", Conviction: 0.3, TimeHorizon: "days",
				Instruments: []dto.SignalInstrument{{Symbol: "NVDA", AssetClass: "equity", Direction: "long"}}},
			{SignalType: "directional", Direction: "long", Conviction: 0.4, TimeHorizon: "days",
				Instruments: []dto.SignalInstrument{{Symbol: "AMD", AssetClass: "equity", Direction: "long"}}},
			{SignalType: "pair", Direction: "long", Conviction: 0.9, TimeHorizon: "weeks",
				Instruments: []dto.SignalInstrument{{Symbol: "SMH", AssetClass: "etf", Direction: "long"}}},
		},
	}
	f := newBrainFixture(intel)
	f.addFilteredPost("window post")

	f.svc.RunSynthesis(ctx)

	// 0.3 is below the floor, 0.4 sits exactly on it and survives.
	assert.Len(t, f.signalRepo.signals, 2)
	stats := f.svc.Stats()
	assert.Equal(t, int64(2), stats.SignalsCreated)
	assert.Equal(t, int64(1), stats.SignalsDiscarded)

	// Only the 0.9 signal clears the notification threshold.
	assert.Len(t, f.notifier.messages, 1)
}

func TestBrainSynthesisEmptyResultSkipsSignalGeneration(t *testing.T) {
	ctx := context.Background()
	intel := &fakeIntelligence{synthesis: &dto.SynthesisResult{Narrative: "nothing moved"}}
	f := newBrainFixture(intel)
	f.addFilteredPost("window post")

	f.svc.RunSynthesis(ctx)

	assert.Equal(t, 1, intel.synthesizeCalls)
	assert.Equal(t, 0, intel.generateCalls)
	assert.Empty(t, f.signalRepo.signals)
}

func TestBrainSynthesisCallFailureYieldsZeroSignals(t *testing.T) {
	ctx := context.Background()
	intel := &fakeIntelligence{synthesisErr: errors.New("model unavailable")}
	f := newBrainFixture(intel)
	f.addFilteredPost("window post")

	f.svc.RunSynthesis(ctx)

	assert.Empty(t, f.signalRepo.signals)
}

func TestBrainSignalExpiryFollowsHorizon(t *testing.T) {
	ctx := context.Background()
	intel := &fakeIntelligence{
		synthesis: &dto.SynthesisResult{
			Alerts: []dto.SynthesisAlert{{Alert: "volume spike", Severity: "high", Score: 0.9}},
		},
		candidates: []dto.CandidateSignal{
			{SignalType: "directional", Direction: "short", Conviction: 0.6, TimeHorizon: "intraday",
				Instruments: []dto.SignalInstrument{{Symbol: "TSLA", AssetClass: "equity", Direction: "short"}}},
		},
	}
	f := newBrainFixture(intel)
	f.addFilteredPost("window post")

	before := time.Now().UTC()
	f.svc.RunSynthesis(ctx)

	require.Len(t, f.signalRepo.signals, 1)
	expires := f.signalRepo.signals[0].ExpiresAt
	assert.WithinDuration(t, before.Add(24*time.Hour), expires, 5*time.Second)
}
