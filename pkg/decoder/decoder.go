// Package decoder recovers structured JSON from LLM responses. Providers are
// asked for strict JSON but routinely wrap it in markdown fences, prose, or an
// envelope object, so extraction is layered: each strategy is tried in order
// and the outcome is tagged with the strategy that succeeded.
package decoder

import (
	"encoding/json"
	"strings"
)

// Strategy names the extraction layer that produced a result.
type Strategy string

const (
	StrategyTopLevelArray Strategy = "top_level_array"
	StrategyWrappedArray  Strategy = "wrapped_array"
	StrategyEmbeddedArray Strategy = "embedded_array"
	StrategyNone          Strategy = "none"
)

// wrapperKeys are envelope keys providers commonly put an array under.
var wrapperKeys = []string{"verdicts", "results", "items", "posts", "entities", "signals", "data"}

// ArrayResult is the tagged outcome of an array extraction.
type ArrayResult struct {
	OK       bool
	Raw      json.RawMessage
	Strategy Strategy
}

// ExtractArray pulls the first JSON array out of raw text, trying, in order:
// a top-level array, an object wrapping an array under a known key, and a scan
// for the first array-shaped span. A miss on all three returns OK=false rather
// than an error so callers can degrade to an empty result.
func ExtractArray(text string) ArrayResult {
	text = StripFences(text)

	if raw, ok := decodeTopLevelArray(text); ok {
		return ArrayResult{OK: true, Raw: raw, Strategy: StrategyTopLevelArray}
	}
	if raw, ok := decodeWrappedArray(text); ok {
		return ArrayResult{OK: true, Raw: raw, Strategy: StrategyWrappedArray}
	}
	if raw, ok := decodeEmbeddedArray(text); ok {
		return ArrayResult{OK: true, Raw: raw, Strategy: StrategyEmbeddedArray}
	}
	return ArrayResult{OK: false, Strategy: StrategyNone}
}

// UnmarshalArray extracts an array from text and unmarshals it into v.
// The boolean reports whether an array was found and parsed.
func UnmarshalArray(text string, v interface{}) (Strategy, bool) {
	res := ExtractArray(text)
	if !res.OK {
		return StrategyNone, false
	}
	if err := json.Unmarshal(res.Raw, v); err != nil {
		return res.Strategy, false
	}
	return res.Strategy, true
}

// UnmarshalObject strips fences and unmarshals a single JSON object, falling
// back to the first object-shaped span found in the text.
func UnmarshalObject(text string, v interface{}) bool {
	text = StripFences(text)
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return true
	}
	span, ok := balancedSpan(text, '{', '}')
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(span), v) == nil
}

// StripFences removes a surrounding markdown code fence, if present.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func decodeTopLevelArray(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

func decodeWrappedArray(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, false
	}
	for _, key := range wrapperKeys {
		raw, found := obj[key]
		if !found {
			continue
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err == nil {
			return raw, true
		}
	}
	return nil, false
}

func decodeEmbeddedArray(text string) (json.RawMessage, bool) {
	span, ok := balancedSpan(text, '[', ']')
	if !ok {
		return nil, false
	}
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(span), &arr); err != nil {
		return nil, false
	}
	return json.RawMessage(span), true
}

// balancedSpan returns the first balanced open..close span, skipping brackets
// inside string literals.
func balancedSpan(text string, open, close byte) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case open:
			if start < 0 {
				start = i
			}
			depth++
		case close:
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
