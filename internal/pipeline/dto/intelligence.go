package dto

// PostVerdict is one element of the relevance-classification response. The
// filter stage requires exactly one verdict per submitted post; shortfalls are
// padded with not-relevant verdicts, never the other way around.
type PostVerdict struct {
	Relevant       bool    `json:"relevant"`
	RelevanceScore float64 `json:"relevanceScore"`
	Urgency        string  `json:"urgency"`
	Category       string  `json:"category"`
	Reasoning      string  `json:"reasoning"`
}

// ExtractedEntity is one element of the entity-extraction response.
// SecondOrder carries knock-on exposures the post implies but does not name,
// e.g. a supplier disruption implicating the buyer and a sector ETF.
type ExtractedEntity struct {
	Name           string              `json:"name"`
	Type           string              `json:"type"`
	Ticker         string              `json:"ticker,omitempty"`
	RelatedTickers []string            `json:"relatedTickers,omitempty"`
	SecondOrder    []SecondOrderEffect `json:"secondOrder,omitempty"`
}

// SecondOrderEffect names an indirect exposure of an extracted entity.
type SecondOrderEffect struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Ticker    string `json:"ticker,omitempty"`
	Mechanism string `json:"mechanism,omitempty"`
}

// EntitySentiment is one element of the sentiment-scoring response, resolved
// against the just-extracted entity set by name.
type EntitySentiment struct {
	EntityName string   `json:"entityName"`
	Sentiment  float64  `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Urgency    float64  `json:"urgency"`
	Mechanism  string   `json:"mechanism"`
	Themes     []string `json:"themes,omitempty"`
}

// SynthesisResult is the cross-source pattern structure produced over a
// trailing window of filtered posts.
type SynthesisResult struct {
	Themes          []SynthesisTheme `json:"themes"`
	Alerts          []SynthesisAlert `json:"alerts"`
	NarrativeShifts []NarrativeShift `json:"narrativeShifts"`
	Narrative       string           `json:"narrative,omitempty"`
}

// Empty reports whether the synthesis surfaced nothing actionable.
func (s *SynthesisResult) Empty() bool {
	return s == nil || (len(s.Themes) == 0 && len(s.Alerts) == 0 && len(s.NarrativeShifts) == 0)
}

// SynthesisTheme is a cross-source pattern: convergence, divergence, momentum
// shift, emerging narrative, volume anomaly, or cross-platform echo.
type SynthesisTheme struct {
	Theme       string   `json:"theme"`
	PatternType string   `json:"patternType"`
	Entities    []string `json:"entities,omitempty"`
	Platforms   []string `json:"platforms,omitempty"`
	Strength    float64  `json:"strength"`
	Summary     string   `json:"summary"`
}

// SynthesisAlert flags something that warrants immediate attention.
type SynthesisAlert struct {
	Alert    string  `json:"alert"`
	Severity string  `json:"severity"`
	Entity   string  `json:"entity,omitempty"`
	Score    float64 `json:"score"`
}

// NarrativeShift records a change in how sources talk about an entity.
type NarrativeShift struct {
	Entity string `json:"entity"`
	From   string `json:"from"`
	To     string `json:"to"`
	Driver string `json:"driver,omitempty"`
}

// CandidateSignal is one element of the signal-generation response. Candidates
// below the conviction floor are discarded before persistence.
type CandidateSignal struct {
	SignalType  string             `json:"signalType"`
	Instruments []SignalInstrument `json:"instruments"`
	Direction   string             `json:"direction"`
	Conviction  float64            `json:"conviction"`
	TimeHorizon string             `json:"timeHorizon"`
	Thesis      string             `json:"thesis"`
	Evidence    []string           `json:"evidence,omitempty"`
}

// SignalInstrument is one tradeable leg of a signal.
type SignalInstrument struct {
	Symbol     string `json:"symbol"`
	AssetClass string `json:"assetClass"`
	Direction  string `json:"direction"`
}

// Correlation is the ticker-resolution result for an entity the classification
// output left without an instrument.
type Correlation struct {
	Ticker         string   `json:"ticker"`
	RelatedTickers []string `json:"related_tickers"`
}
