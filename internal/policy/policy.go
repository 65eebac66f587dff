// Package policy implements spec.md §4.7's write-policy engine: deciding
// which layers an Event should be written to, resolving conflicting
// profile writes, validating profile keys against a whitelist, extracting
// preferences from free text, and deciding when a session should be
// summarised. Every function here is pure — no store handle, no IO — so
// the Manager can call it inline on the hot ingest path. Generalized from
// the teacher's importance-threshold heuristic in
// SQLiteLearningDB.SummarizeEpisodes (`if ep.Importance > 0.7`) into an
// additive rule engine.
package policy

import "github.com/cliair-memcore/memcore/memtypes"

// Layer names a destination the write-policy engine can route an event to.
type Layer string

const (
	LayerProfile  Layer = "profile"
	LayerSemantic Layer = "semantic"
	LayerSummary  Layer = "summary"
)

// DefaultMinConfidence is the spec.md §4.7 default min_confidence.
const DefaultMinConfidence = 0.5

// WriteDecision is decide_write's result, per spec.md §4.7.
type WriteDecision struct {
	ShouldWrite  bool
	TargetLayers []Layer
	Confidence   float64
	Reason       string
}

// Engine holds the configuration decide_write/should_summarise consult,
// per spec.md §6 ("write policy ... min_confidence, auto_summarise,
// thresholds, profile whitelist, conflict strategy").
type Engine struct {
	MinConfidence float64

	ProfileWhitelist map[string]bool // nil means no whitelist configured

	ConflictStrategy ConflictStrategy

	AutoSummarise             bool
	SummariseEveryNEvents     int
	SummariseTokenThreshold   int
}

// NewEngine returns an Engine with spec.md §4.7 defaults.
func NewEngine() *Engine {
	return &Engine{
		MinConfidence:           DefaultMinConfidence,
		ConflictStrategy:        ConflictLatest,
		AutoSummarise:           true,
		SummariseEveryNEvents:   DefaultSummariseEveryNEvents,
		SummariseTokenThreshold: DefaultSummariseTokenThreshold,
	}
}

// DecideWrite applies the spec.md §4.7 rules additively: every rule whose
// condition matches contributes its layers and raises confidence to at
// least its own value.
func (e *Engine) DecideWrite(ev memtypes.Event) WriteDecision {
	layers := map[Layer]bool{}
	confidence := 0.0
	var reasons []string

	switch ev.Type {
	case memtypes.EventDecision:
		layers[LayerSemantic] = true
		layers[LayerSummary] = true
		confidence = max(confidence, 0.9)
		reasons = append(reasons, "decision event")
	case memtypes.EventStateChange:
		layers[LayerSemantic] = true
		confidence = max(confidence, 0.8)
		reasons = append(reasons, "state_change event")
	case memtypes.EventToolResult:
		if isSubstantialToolResult(ev.Payload) {
			layers[LayerSemantic] = true
			confidence = max(confidence, 0.7)
			reasons = append(reasons, "substantial tool_result payload")
		}
	}

	if ev.Type == memtypes.EventUserMsg {
		if text, ok := messageText(ev); ok && matchesPreferenceIndicator(text) {
			layers[LayerProfile] = true
			confidence = max(confidence, 0.8)
			reasons = append(reasons, "preference-indicator phrase in user_msg")
		}
	}

	minConfidence := e.MinConfidence
	if minConfidence == 0 {
		minConfidence = DefaultMinConfidence
	}

	decision := WriteDecision{
		TargetLayers: sortedLayers(layers),
		Confidence:   confidence,
		Reason:       joinReasons(reasons),
	}
	decision.ShouldWrite = len(decision.TargetLayers) > 0 && confidence >= minConfidence
	return decision
}

func isSubstantialToolResult(payload map[string]any) bool {
	if payload == nil {
		return false
	}
	if s, ok := payload["result"].(string); ok {
		return len(s) > 200
	}
	return len(payload) > 0
}

func messageText(ev memtypes.Event) (string, bool) {
	if payload := ev.Payload; payload != nil {
		if s, ok := payload["text"].(string); ok {
			return s, true
		}
		if s, ok := payload["content"].(string); ok {
			return s, true
		}
	}
	if ev.Summary != "" {
		return ev.Summary, true
	}
	return "", false
}

func sortedLayers(set map[Layer]bool) []Layer {
	order := []Layer{LayerProfile, LayerSemantic, LayerSummary}
	var out []Layer
	for _, l := range order {
		if set[l] {
			out = append(out, l)
		}
	}
	return out
}

func joinReasons(reasons []string) string {
	switch len(reasons) {
	case 0:
		return "no matching rule"
	case 1:
		return reasons[0]
	default:
		out := reasons[0]
		for _, r := range reasons[1:] {
			out += "; " + r
		}
		return out
	}
}
