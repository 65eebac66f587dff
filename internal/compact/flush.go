package compact

// FlushReason explains check_flush's decision, per spec.md §4.8.
type FlushReason string

const (
	ReasonDisabled            FlushReason = "disabled"
	ReasonTooFewEvents        FlushReason = "too_few_events"
	ReasonThresholdNotReached FlushReason = "threshold_not_reached"
	ReasonSoftThreshold       FlushReason = "soft_threshold_exceeded"
	ReasonHardThreshold       FlushReason = "hard_threshold_exceeded"
	ReasonManualTrigger       FlushReason = "manual_trigger"
	ReasonSessionEnd          FlushReason = "session_end"
)

// FlushCheck is check_flush's result, per spec.md §4.8.
type FlushCheck struct {
	ShouldFlush bool
	Reason      FlushReason
	Urgency     float64
}

// CheckFlush decides whether compaction should run now, per spec.md §4.8.
// Urgency ramps linearly from 0 at zero tokens to 0.5 at the soft
// threshold, 0.5 to 1.0 between soft and hard, and pins at 1.0 at or above
// the hard threshold.
func (c *Controller) CheckFlush(currentTokens, eventsSinceFlush int) FlushCheck {
	c.mu.Lock()
	cfg := c.cfg
	c.mu.Unlock()

	minEvents := cfg.MinEventsSinceFlush
	if eventsSinceFlush < minEvents {
		return FlushCheck{ShouldFlush: false, Reason: ReasonTooFewEvents, Urgency: urgency(currentTokens, cfg)}
	}

	u := urgency(currentTokens, cfg)
	switch {
	case currentTokens >= cfg.HardThresholdTokens:
		return FlushCheck{ShouldFlush: true, Reason: ReasonHardThreshold, Urgency: u}
	case currentTokens >= cfg.SoftThresholdTokens:
		return FlushCheck{ShouldFlush: true, Reason: ReasonSoftThreshold, Urgency: u}
	default:
		return FlushCheck{ShouldFlush: false, Reason: ReasonThresholdNotReached, Urgency: u}
	}
}

func urgency(currentTokens int, cfg Config) float64 {
	soft, hard := cfg.SoftThresholdTokens, cfg.HardThresholdTokens
	switch {
	case hard <= soft:
		if currentTokens >= hard {
			return 1.0
		}
		return 0
	case currentTokens >= hard:
		return 1.0
	case currentTokens >= soft:
		return 0.5 + 0.5*float64(currentTokens-soft)/float64(hard-soft)
	case soft <= 0:
		return 0
	default:
		return 0.5 * float64(currentTokens) / float64(soft)
	}
}
