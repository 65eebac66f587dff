package policy

// DefaultSummariseEveryNEvents is the spec.md §4.7 default
// summarise_every_n_events.
const DefaultSummariseEveryNEvents = 20

// DefaultSummariseTokenThreshold is the spec.md §4.7 default
// summarise_token_threshold.
const DefaultSummariseTokenThreshold = 4000

// SummariseDecision is should_summarise's result, per spec.md §4.7.
type SummariseDecision struct {
	Should bool
	Reason string
}

// ShouldSummarise reports whether enough events or tokens have
// accumulated since the last summary, per spec.md §4.7. The token branch
// fires only on the count the caller passes in; a zero never triggers it.
// No package in this module calls ShouldSummarise: the compaction
// controller tracks its own live token counter but does not consult this
// function.
func (e *Engine) ShouldSummarise(eventCountSinceLast, tokenCountSinceLast int) SummariseDecision {
	if !e.AutoSummarise {
		return SummariseDecision{Should: false, Reason: "auto_summarise disabled"}
	}

	everyN := e.SummariseEveryNEvents
	if everyN == 0 {
		everyN = DefaultSummariseEveryNEvents
	}
	tokenThreshold := e.SummariseTokenThreshold
	if tokenThreshold == 0 {
		tokenThreshold = DefaultSummariseTokenThreshold
	}

	if eventCountSinceLast >= everyN {
		return SummariseDecision{Should: true, Reason: "event_count_since_last reached summarise_every_n_events"}
	}
	if tokenCountSinceLast >= tokenThreshold {
		return SummariseDecision{Should: true, Reason: "token_count_since_last reached summarise_token_threshold"}
	}
	return SummariseDecision{Should: false, Reason: "thresholds not reached"}
}
