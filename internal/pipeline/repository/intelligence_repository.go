package repository

import (
	"context"

	"golang-market-intel/internal/entity"
	"golang-market-intel/internal/pipeline/dto"
)

// IntelligenceRepository is the pluggable classification provider behind the
// pipeline. Each operation is an independent failure domain: a transport error
// is returned to the caller, but malformed provider output is absorbed by
// defensive decoding and surfaces as a short or empty result instead.
type IntelligenceRepository interface {
	// ClassifyPosts issues one call for the whole batch and returns per-post
	// verdicts. The result may hold fewer verdicts than posts; callers must
	// pad the shortfall with not-relevant verdicts.
	ClassifyPosts(ctx context.Context, posts []dto.QueuedPost) ([]dto.PostVerdict, error)
	// ExtractEntities pulls market entities out of one post's content.
	ExtractEntities(ctx context.Context, content string) ([]dto.ExtractedEntity, error)
	// ScoreSentiment scores the named entities against the post content.
	ScoreSentiment(ctx context.Context, content string, entities []dto.ExtractedEntity) ([]dto.EntitySentiment, error)
	// Synthesize aggregates a window of filtered posts and their sentiment
	// scores into cross-source themes, alerts, and narrative shifts.
	Synthesize(ctx context.Context, posts []entity.FilteredPost, scores []entity.SentimentScore) (*dto.SynthesisResult, error)
	// GenerateSignals proposes candidate signals from a synthesis result.
	GenerateSignals(ctx context.Context, synthesis *dto.SynthesisResult) ([]dto.CandidateSignal, error)
}
