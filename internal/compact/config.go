// Package compact implements spec.md §4.8's compaction & flush controller:
// token-budget health tracking, flush-threshold checks, rule-based
// extraction of durable content from a window of events, and a
// reentrancy-guarded compact operation. Grounded on the teacher's
// CompactKnowledge maintenance pass (internal/memory/learning.go — age/
// use-count deletion + VACUUM), generalized into the spec's health/
// threshold/urgency model.
package compact

// Config configures a Controller at construction, per spec.md §4.8
// defaults.
type Config struct {
	MaxContextTokens    int
	ReserveTokens       int
	SoftThresholdTokens int
	HardThresholdTokens int
	MinEventsSinceFlush int
}

// DefaultConfig returns the spec.md §4.8 default thresholds.
func DefaultConfig() Config {
	return Config{
		MaxContextTokens:    128_000,
		ReserveTokens:       4_000,
		SoftThresholdTokens: 4_000,
		HardThresholdTokens: 8_000,
		MinEventsSinceFlush: 5,
	}
}

// Available returns the token budget left after reserving ReserveTokens,
// per spec.md §4.8 ("health = fraction of available = max - reserve").
func (c Config) Available() int {
	available := c.MaxContextTokens - c.ReserveTokens
	if available < 0 {
		return 0
	}
	return available
}
