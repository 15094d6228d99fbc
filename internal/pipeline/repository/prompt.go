package repository

import (
	"fmt"
	"strings"

	"golang-market-intel/internal/entity"
	"golang-market-intel/internal/pipeline/dto"
	"golang-market-intel/pkg/utils"
)

// maxPromptContentLen bounds how much of a post's content goes into a prompt.
const maxPromptContentLen = 1500

func truncateContent(s string) string {
	s = utils.SafeText(s)
	if len(s) > maxPromptContentLen {
		return s[:maxPromptContentLen] + "..."
	}
	return s
}

// BuildClassifyPostsPrompt enumerates a batch of posts and asks for exactly
// one verdict per post, in order.
func BuildClassifyPostsPrompt(posts []dto.QueuedPost) string {
	var b strings.Builder
	for i, post := range posts {
		b.WriteString(fmt.Sprintf("%d. [%s] @%s: %s\n", i+1, post.Platform, post.Author, truncateContent(post.Content)))
	}

	return fmt.Sprintf(`You are a markets desk triage analyst. Below are %d social/news posts about public companies. Decide for each one whether it is decision-relevant for trading: concrete, timely, and tied to a tradeable entity. Memes, vague opinions, and stale news are not relevant.

Posts:
%s
Respond with ONLY a JSON array of exactly %d objects, one per post in the same order:
[
  {
    "relevant": <bool>,
    "relevanceScore": <float 0.0-1.0>,
    "urgency": "HIGH | MEDIUM | LOW",
    "category": "earnings | guidance | merger_acquisition | regulatory | legal | product_launch | supply_chain | management_change | analyst_action | insider_activity | macro | geopolitical | commodity | dividend_buyback | short_interest | partnership | labor | technology | rumor | other",
    "reasoning": "<one sentence>"
  }
]`, len(posts), b.String(), len(posts))
}

// BuildExtractEntitiesPrompt asks for the market entities a post implicates,
// including second-order exposures the post does not name.
func BuildExtractEntitiesPrompt(content string) string {
	return fmt.Sprintf(`Extract every market entity this post implicates, directly or indirectly. Include second-order effects: a supplier disruption implicates the buyer, its competitors, and sector ETFs.

Post:
%s

Respond with ONLY a JSON array:
[
  {
    "name": "<canonical entity name>",
    "type": "COMPANY | COMMODITY | COUNTRY | SECTOR | PERSON | PRODUCT | LEGISLATION | CRYPTO",
    "ticker": "<primary ticker if known, else omit>",
    "relatedTickers": ["<related instruments>"],
    "secondOrder": [
      {"name": "<entity>", "type": "<type>", "ticker": "<ticker>", "mechanism": "<why it is exposed>"}
    ]
  }
]`, truncateContent(content))
}

// BuildScoreSentimentPrompt asks for one sentiment object per named entity.
func BuildScoreSentimentPrompt(content string, entities []dto.ExtractedEntity) string {
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, fmt.Sprintf("%s (%s)", e.Name, e.Type))
	}

	return fmt.Sprintf(`Score the sentiment this post expresses toward each entity listed below. Sentiment is the directional read for the entity's traded instruments, not the post's tone.

Post:
%s

Entities: %s

Respond with ONLY a JSON array containing exactly one object per entity:
[
  {
    "entityName": "<entity name exactly as listed>",
    "sentiment": <float -1.0 (very bearish) to 1.0 (very bullish)>,
    "confidence": <float 0.0-1.0>,
    "urgency": <float 0.0-1.0>,
    "mechanism": "<how the post moves this entity>",
    "themes": ["<short theme tags>"]
  }
]`, truncateContent(content), strings.Join(names, "; "))
}

// BuildSynthesisPrompt bundles a window of filtered posts and their sentiment
// scores and asks for cross-source patterns.
func BuildSynthesisPrompt(posts []entity.FilteredPost, scores []entity.SentimentScore) string {
	var b strings.Builder
	scoresByPost := make(map[uint][]entity.SentimentScore)
	for _, s := range scores {
		scoresByPost[s.FilteredPostID] = append(scoresByPost[s.FilteredPostID], s)
	}

	for i, post := range posts {
		platform, content := "unknown", ""
		if post.RawPost != nil {
			platform = post.RawPost.Platform
			content = post.RawPost.Content
		}
		b.WriteString(fmt.Sprintf("%d. [%s/%s] %s\n", i+1, platform, post.Category, truncateContent(content)))
		for _, s := range scoresByPost[post.ID] {
			b.WriteString(fmt.Sprintf("   sentiment entity_id=%d: %.2f (confidence %.2f) themes=%s\n",
				s.EntityID, s.Sentiment, s.Confidence, strings.Join(s.Themes, ",")))
		}
	}

	return fmt.Sprintf(`You are synthesizing %d recently filtered posts from multiple independent sources. Surface: convergence (independent sources agreeing), divergence, momentum shifts, emerging narratives, volume anomalies, and cross-platform patterns.

Window:
%s
Respond with ONLY a JSON object:
{
  "themes": [{"theme": "<name>", "patternType": "convergence | divergence | momentum_shift | emerging_narrative | volume_anomaly | cross_platform", "entities": ["<names>"], "platforms": ["<platforms>"], "strength": <float 0.0-1.0>, "summary": "<one sentence>"}],
  "alerts": [{"alert": "<what>", "severity": "high | medium | low", "entity": "<name>", "score": <float 0.0-1.0>}],
  "narrativeShifts": [{"entity": "<name>", "from": "<old narrative>", "to": "<new narrative>", "driver": "<what changed>"}],
  "narrative": "<one paragraph overview>"
}`, len(posts), b.String())
}

// BuildSignalsPrompt turns a synthesis result into candidate trading signals.
func BuildSignalsPrompt(synthesis *dto.SynthesisResult) string {
	var b strings.Builder
	for _, theme := range synthesis.Themes {
		b.WriteString(fmt.Sprintf("- theme %q (%s, strength %.2f): %s\n", theme.Theme, theme.PatternType, theme.Strength, theme.Summary))
	}
	for _, alert := range synthesis.Alerts {
		b.WriteString(fmt.Sprintf("- alert [%s] %s (entity %s, score %.2f)\n", alert.Severity, alert.Alert, alert.Entity, alert.Score))
	}
	for _, shift := range synthesis.NarrativeShifts {
		b.WriteString(fmt.Sprintf("- narrative shift for %s: %q -> %q\n", shift.Entity, shift.From, shift.To))
	}

	return fmt.Sprintf(`Based on the synthesized market picture below, propose trading signals. Only propose a signal when the evidence supports a conviction of at least 0.4; weaker ideas should be omitted entirely.

Synthesis:
%s
Respond with ONLY a JSON array (empty array if nothing qualifies):
[
  {
    "signalType": "convergence | divergence | momentum | narrative_shift | volume_anomaly",
    "instruments": [{"symbol": "<ticker>", "assetClass": "equity | etf | commodity | fx | crypto", "direction": "long | short"}],
    "direction": "bullish | bearish | mixed",
    "conviction": <float 0.0-1.0>,
    "timeHorizon": "intraday | days | weeks",
    "thesis": "<2-3 sentences>",
    "evidence": ["<supporting theme/alert references>"]
  }
]`, b.String())
}
