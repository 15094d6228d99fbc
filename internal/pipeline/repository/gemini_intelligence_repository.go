package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-market-intel/internal/entity"
	"golang-market-intel/internal/pipeline/config"
	"golang-market-intel/internal/pipeline/dto"
	"golang-market-intel/pkg/decoder"
	"golang-market-intel/pkg/logger"
	"golang-market-intel/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiIntelligenceRepository is an IntelligenceRepository backed by the
// Google Gemini API.
type geminiIntelligenceRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiIntelligenceRepository creates a new instance of geminiIntelligenceRepository.
func NewGeminiIntelligenceRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (IntelligenceRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)

	return &geminiIntelligenceRepository{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

// ClassifyPosts issues one classification call for the whole batch. Malformed
// output degrades to a short or empty verdict list; only transport failures
// return an error.
func (r *geminiIntelligenceRepository) ClassifyPosts(ctx context.Context, posts []dto.QueuedPost) ([]dto.PostVerdict, error) {
	prompt := BuildClassifyPostsPrompt(posts)

	text, err := r.executeGeminiRequest(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var verdicts []dto.PostVerdict
	strategy, ok := decoder.UnmarshalArray(text, &verdicts)
	if !ok {
		r.logger.Warn("Classification response yielded no verdict array, treating batch as not relevant",
			logger.StringField("strategy", string(strategy)),
			logger.IntField("batch_size", len(posts)),
		)
		return nil, nil
	}

	if strategy != decoder.StrategyTopLevelArray {
		r.logger.Debug("Classification response recovered by fallback decode",
			logger.StringField("strategy", string(strategy)))
	}
	return verdicts, nil
}

func (r *geminiIntelligenceRepository) ExtractEntities(ctx context.Context, content string) ([]dto.ExtractedEntity, error) {
	text, err := r.executeGeminiRequest(ctx, BuildExtractEntitiesPrompt(content))
	if err != nil {
		return nil, err
	}

	var entities []dto.ExtractedEntity
	if _, ok := decoder.UnmarshalArray(text, &entities); !ok {
		r.logger.Warn("Entity extraction response yielded no array")
		return nil, nil
	}
	return entities, nil
}

func (r *geminiIntelligenceRepository) ScoreSentiment(ctx context.Context, content string, extractedEntities []dto.ExtractedEntity) ([]dto.EntitySentiment, error) {
	text, err := r.executeGeminiRequest(ctx, BuildScoreSentimentPrompt(content, extractedEntities))
	if err != nil {
		return nil, err
	}

	var sentiments []dto.EntitySentiment
	if _, ok := decoder.UnmarshalArray(text, &sentiments); !ok {
		r.logger.Warn("Sentiment response yielded no array")
		return nil, nil
	}
	return sentiments, nil
}

func (r *geminiIntelligenceRepository) Synthesize(ctx context.Context, posts []entity.FilteredPost, scores []entity.SentimentScore) (*dto.SynthesisResult, error) {
	if len(posts) == 0 {
		return &dto.SynthesisResult{}, nil
	}

	text, err := r.executeGeminiRequest(ctx, BuildSynthesisPrompt(posts, scores))
	if err != nil {
		return nil, err
	}

	var result dto.SynthesisResult
	if !decoder.UnmarshalObject(text, &result) {
		r.logger.Warn("Synthesis response yielded no object")
		return &dto.SynthesisResult{}, nil
	}
	return &result, nil
}

func (r *geminiIntelligenceRepository) GenerateSignals(ctx context.Context, synthesis *dto.SynthesisResult) ([]dto.CandidateSignal, error) {
	if synthesis.Empty() {
		return nil, nil
	}

	text, err := r.executeGeminiRequest(ctx, BuildSignalsPrompt(synthesis))
	if err != nil {
		return nil, err
	}

	var candidates []dto.CandidateSignal
	if _, ok := decoder.UnmarshalArray(text, &candidates); !ok {
		r.logger.Warn("Signal generation response yielded no array")
		return nil, nil
	}
	return candidates, nil
}

// executeGeminiRequest sends a prompt through the token and request limiters
// and returns the first candidate's text.
func (r *geminiIntelligenceRepository) executeGeminiRequest(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(geminiTokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)

	if err := r.tokenLimiter.Wait(ctx, int(geminiTokenResp.TotalTokens)); err != nil {
		return "", fmt.Errorf("failed to wait for token limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{Parts: []dto.Part{{Text: prompt}}}},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s:generateContent?key=%s", r.cfg.Gemini.BaseURL, r.cfg.Gemini.Model, r.cfg.Gemini.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return "", fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("Failed to send request to Gemini API", logger.ErrorField(err))
		return "", fmt.Errorf("failed to send request to Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("Received non-OK response from Gemini API", logger.IntField("status_code", resp.StatusCode))
		return "", fmt.Errorf("received non-OK response from Gemini API: %d - %s", resp.StatusCode, string(body))
	}

	var geminiResp dto.GeminiAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("invalid response from Gemini API: no content found")
	}
	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}
