package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Relevant bool    `json:"relevant"`
	Score    float64 `json:"relevanceScore"`
}

func TestExtractArray_TopLevelArray(t *testing.T) {
	res := ExtractArray(`[{"relevant": true, "relevanceScore": 0.9}]`)
	require.True(t, res.OK)
	assert.Equal(t, StrategyTopLevelArray, res.Strategy)
}

func TestExtractArray_FencedTopLevelArray(t *testing.T) {
	text := "```json\n[{\"relevant\": false, \"relevanceScore\": 0.1}]\n```"
	res := ExtractArray(text)
	require.True(t, res.OK)
	assert.Equal(t, StrategyTopLevelArray, res.Strategy)
}

func TestExtractArray_WrappedUnderKnownKey(t *testing.T) {
	text := `{"verdicts": [{"relevant": true, "relevanceScore": 0.7}, {"relevant": false}]}`
	res := ExtractArray(text)
	require.True(t, res.OK)
	assert.Equal(t, StrategyWrappedArray, res.Strategy)

	var vs []verdict
	_, ok := UnmarshalArray(text, &vs)
	require.True(t, ok)
	require.Len(t, vs, 2)
	assert.True(t, vs[0].Relevant)
}

func TestExtractArray_EmbeddedInProse(t *testing.T) {
	text := `Here is my analysis of the posts:

[{"relevant": true, "relevanceScore": 0.8}, {"relevant": false, "relevanceScore": 0.2}]

Let me know if you need anything else.`
	res := ExtractArray(text)
	require.True(t, res.OK)
	assert.Equal(t, StrategyEmbeddedArray, res.Strategy)

	var vs []verdict
	_, ok := UnmarshalArray(text, &vs)
	require.True(t, ok)
	assert.Len(t, vs, 2)
}

func TestExtractArray_BracketsInsideStringsIgnored(t *testing.T) {
	text := `The model said: [{"relevant": true, "reasoning": "ticker [AAPL] spiked"}]`
	var vs []map[string]interface{}
	strategy, ok := UnmarshalArray(text, &vs)
	require.True(t, ok)
	assert.Equal(t, StrategyEmbeddedArray, strategy)
	require.Len(t, vs, 1)
	assert.Equal(t, "ticker [AAPL] spiked", vs[0]["reasoning"])
}

func TestExtractArray_UnparsableText(t *testing.T) {
	res := ExtractArray("I could not process these posts, please try again.")
	assert.False(t, res.OK)
	assert.Equal(t, StrategyNone, res.Strategy)
}

func TestExtractArray_TruncatedArrayFails(t *testing.T) {
	res := ExtractArray(`[{"relevant": true}, {"relev`)
	assert.False(t, res.OK)
}

func TestUnmarshalObject_PlainAndEmbedded(t *testing.T) {
	type synth struct {
		Narrative string `json:"narrative"`
	}

	var a synth
	require.True(t, UnmarshalObject(`{"narrative": "risk-off"}`, &a))
	assert.Equal(t, "risk-off", a.Narrative)

	var b synth
	require.True(t, UnmarshalObject("Sure!\n```json\n{\"narrative\": \"rotation\"}\n```", &b))
	assert.Equal(t, "rotation", b.Narrative)

	var c synth
	assert.False(t, UnmarshalObject("no json here", &c))
}
