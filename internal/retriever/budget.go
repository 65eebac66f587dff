package retriever

import "math"

// Budget is the per-section token budget, per spec.md §4.6 defaults.
type Budget struct {
	Profile      int
	Task         int
	RecentEvents int
	Chunks       int
	Summary      int
	Total        int
}

// DefaultBudget returns the spec.md §4.6 default token budget.
func DefaultBudget() Budget {
	return Budget{
		Profile:      200,
		Task:         300,
		RecentEvents: 500,
		Chunks:       800,
		Summary:      400,
		Total:        2200,
	}
}

// Estimator counts the tokens a string would occupy. The default is
// ceil(chars/4), per spec.md §4.6; callers may configure a tokenizer-backed
// estimator instead.
type Estimator func(s string) int

// DefaultEstimator implements spec.md §4.6's ceil(chars/4) heuristic.
func DefaultEstimator(s string) int {
	if s == "" {
		return 0
	}
	return int(math.Ceil(float64(len(s)) / 4))
}
