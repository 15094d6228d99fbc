package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang-market-intel/internal/entity"
	"golang-market-intel/internal/pipeline/dto"
)

// fakeIntelligence returns scripted responses per operation.
type fakeIntelligence struct {
	verdicts    []dto.PostVerdict
	classifyErr error

	entitiesByContent map[string][]dto.ExtractedEntity
	extractErr        error

	sentiments   []dto.EntitySentiment
	sentimentErr error

	synthesis    *dto.SynthesisResult
	synthesisErr error

	candidates []dto.CandidateSignal
	signalsErr error

	classifyCalls   int
	synthesizeCalls int
	generateCalls   int
}

func (f *fakeIntelligence) ClassifyPosts(_ context.Context, posts []dto.QueuedPost) ([]dto.PostVerdict, error) {
	f.classifyCalls++
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	return f.verdicts, nil
}

func (f *fakeIntelligence) ExtractEntities(_ context.Context, content string) ([]dto.ExtractedEntity, error) {
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.entitiesByContent[content], nil
}

func (f *fakeIntelligence) ScoreSentiment(_ context.Context, _ string, _ []dto.ExtractedEntity) ([]dto.EntitySentiment, error) {
	if f.sentimentErr != nil {
		return nil, f.sentimentErr
	}
	return f.sentiments, nil
}

func (f *fakeIntelligence) Synthesize(_ context.Context, posts []entity.FilteredPost, _ []entity.SentimentScore) (*dto.SynthesisResult, error) {
	f.synthesizeCalls++
	if f.synthesisErr != nil {
		return nil, f.synthesisErr
	}
	if f.synthesis == nil {
		return &dto.SynthesisResult{}, nil
	}
	return f.synthesis, nil
}

func (f *fakeIntelligence) GenerateSignals(_ context.Context, _ *dto.SynthesisResult) ([]dto.CandidateSignal, error) {
	f.generateCalls++
	if f.signalsErr != nil {
		return nil, f.signalsErr
	}
	return f.candidates, nil
}

// fakeRawPostRepo mimics the post_id unique constraint and the raw+filtered
// transaction.
type fakeRawPostRepo struct {
	rawByPostID map[string]*entity.RawPost
	filtered    []*entity.FilteredPost
	failPostIDs map[string]bool
	nextID      uint
}

func newFakeRawPostRepo() *fakeRawPostRepo {
	return &fakeRawPostRepo{
		rawByPostID: make(map[string]*entity.RawPost),
		failPostIDs: make(map[string]bool),
	}
}

func (f *fakeRawPostRepo) CreateIgnoreConflict(_ context.Context, rawPost *entity.RawPost) error {
	if f.failPostIDs[rawPost.PostID] {
		return fmt.Errorf("simulated write failure for %s", rawPost.PostID)
	}
	if _, exists := f.rawByPostID[rawPost.PostID]; exists {
		return nil
	}
	f.nextID++
	rawPost.ID = f.nextID
	f.rawByPostID[rawPost.PostID] = rawPost
	return nil
}

func (f *fakeRawPostRepo) CreateWithFiltered(ctx context.Context, rawPost *entity.RawPost, filtered *entity.FilteredPost) error {
	if f.failPostIDs[rawPost.PostID] {
		return fmt.Errorf("simulated write failure for %s", rawPost.PostID)
	}
	if _, exists := f.rawByPostID[rawPost.PostID]; exists {
		return nil
	}
	if err := f.CreateIgnoreConflict(ctx, rawPost); err != nil {
		return err
	}
	if filtered != nil {
		filtered.RawPostID = rawPost.ID
		f.nextID++
		filtered.ID = f.nextID
		f.filtered = append(f.filtered, filtered)
	}
	return nil
}

func (f *fakeRawPostRepo) CountByPlatform(_ context.Context, platform string) (int64, error) {
	var count int64
	for _, raw := range f.rawByPostID {
		if raw.Platform == platform {
			count++
		}
	}
	return count, nil
}

// fakeFilteredRepo stores filtered posts in memory with monotonic analyzed.
type fakeFilteredRepo struct {
	posts  map[uint]*entity.FilteredPost
	nextID uint
}

func newFakeFilteredRepo() *fakeFilteredRepo {
	return &fakeFilteredRepo{posts: make(map[uint]*entity.FilteredPost)}
}

func (f *fakeFilteredRepo) add(post *entity.FilteredPost) *entity.FilteredPost {
	f.nextID++
	post.ID = f.nextID
	f.posts[post.ID] = post
	return post
}

func (f *fakeFilteredRepo) FindUnanalyzed(_ context.Context, limit int) ([]entity.FilteredPost, error) {
	var out []entity.FilteredPost
	for _, p := range f.posts {
		if !p.Analyzed {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilteredAt.Before(out[j].FilteredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeFilteredRepo) MarkAnalyzed(_ context.Context, id uint) error {
	if p, ok := f.posts[id]; ok && !p.Analyzed {
		p.Analyzed = true
	}
	return nil
}

func (f *fakeFilteredRepo) FindSince(_ context.Context, cutoff time.Time) ([]entity.FilteredPost, error) {
	var out []entity.FilteredPost
	for _, p := range f.posts {
		if !p.FilteredAt.Before(cutoff) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilteredAt.Before(out[j].FilteredAt) })
	return out, nil
}

// fakeEntityRepo mimics the (name, type) unique constraint.
type fakeEntityRepo struct {
	byKey   map[string]*entity.MarketEntity
	nextID  uint
	upserts int
}

func newFakeEntityRepo() *fakeEntityRepo {
	return &fakeEntityRepo{byKey: make(map[string]*entity.MarketEntity)}
}

func (f *fakeEntityRepo) key(name string, t entity.EntityType) string {
	return name + "|" + string(t)
}

func (f *fakeEntityRepo) Upsert(_ context.Context, e *entity.MarketEntity) error {
	f.upserts++
	key := f.key(e.Name, e.EntityType)
	if existing, ok := f.byKey[key]; ok {
		existing.Ticker = e.Ticker
		existing.RelatedTickers = e.RelatedTickers
		existing.Metadata = e.Metadata
		e.ID = existing.ID
		return nil
	}
	f.nextID++
	e.ID = f.nextID
	stored := *e
	f.byKey[key] = &stored
	return nil
}

func (f *fakeEntityRepo) FindByNameAndType(_ context.Context, name string, t entity.EntityType) (*entity.MarketEntity, error) {
	if e, ok := f.byKey[f.key(name, t)]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("entity not found")
}

// fakeScoreRepo appends scores.
type fakeScoreRepo struct {
	scores []*entity.SentimentScore
}

func (f *fakeScoreRepo) Create(_ context.Context, score *entity.SentimentScore) error {
	f.scores = append(f.scores, score)
	return nil
}

func (f *fakeScoreRepo) FindByFilteredPostIDs(_ context.Context, ids []uint) ([]entity.SentimentScore, error) {
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []entity.SentimentScore
	for _, s := range f.scores {
		if want[s.FilteredPostID] {
			out = append(out, *s)
		}
	}
	return out, nil
}

// fakeSignalRepo appends signals.
type fakeSignalRepo struct {
	signals []*entity.Signal
}

func (f *fakeSignalRepo) Create(_ context.Context, signal *entity.Signal) error {
	f.signals = append(f.signals, signal)
	return nil
}

func (f *fakeSignalRepo) FindActive(_ context.Context, now time.Time) ([]entity.Signal, error) {
	var out []entity.Signal
	for _, s := range f.signals {
		if s.ExpiresAt.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

// fakeCorrelationRepo resolves from a fixed map.
type fakeCorrelationRepo struct {
	byName map[string]dto.Correlation
}

func (f *fakeCorrelationRepo) Resolve(_ context.Context, name string, _ entity.EntityType) (*dto.Correlation, error) {
	if corr, ok := f.byName[name]; ok {
		return &corr, nil
	}
	return nil, fmt.Errorf("no correlation for %q", name)
}

// fakeNotifier records sent messages.
type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.messages = append(f.messages, text)
	return nil
}
