package compact

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// HistoryRecord is one entry of the last-10-compactions log, per spec.md
// §4.8.
type HistoryRecord struct {
	Timestamp     int64
	EventsFlushed int
	TokensBefore  int
	TokensAfter   int
	ChunksWritten int
}

const maxHistory = 10

// State is the externally visible snapshot get_state returns, per
// spec.md §6.
type State struct {
	CurrentTokens        int
	EventCount           int
	EventsSinceFlush     int
	LastFlushTimestamp   int64
	History              []HistoryRecord
	CompactionInProgress bool
}

// Controller tracks the token/event counters spec.md §4.8 lists and
// guards compact against concurrent execution with an in-progress flag,
// running the extraction pass itself inside a singleflight group.
type Controller struct {
	cfg Config

	mu                   sync.Mutex
	currentTokens        int
	eventCount           int
	eventsSinceFlush     int
	lastFlushTimestamp   int64
	history              []HistoryRecord
	compactionInProgress bool

	group singleflight.Group

	onCompaction func(CompactResult)
}

// NewController builds a Controller with cfg (use DefaultConfig() for
// spec.md §4.8 defaults).
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// SetOnCompaction registers the callback compact invokes after a
// successful compaction, per spec.md §4.8.
func (c *Controller) SetOnCompaction(cb func(CompactResult)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCompaction = cb
}

// UpdateTokenCount sets the controller's live token counter, per spec.md
// §6 update_token_count(n).
func (c *Controller) UpdateTokenCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTokens = n
}

// RecordEvent increments the event counters compact's thresholds consult,
// per spec.md §6 record_event(ev) "for counting".
func (c *Controller) RecordEvent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventCount++
	c.eventsSinceFlush++
}

// GetState returns a snapshot of the controller's counters, per spec.md
// §6 get_state().
func (c *Controller) GetState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		CurrentTokens:        c.currentTokens,
		EventCount:           c.eventCount,
		EventsSinceFlush:     c.eventsSinceFlush,
		LastFlushTimestamp:   c.lastFlushTimestamp,
		History:              append([]HistoryRecord{}, c.history...),
		CompactionInProgress: c.compactionInProgress,
	}
}

// ResetState clears every counter and history entry, per spec.md §6
// reset_state().
func (c *Controller) ResetState() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTokens = 0
	c.eventCount = 0
	c.eventsSinceFlush = 0
	c.lastFlushTimestamp = 0
	c.history = nil
}

func (c *Controller) recordHistory(rec HistoryRecord) {
	c.history = append(c.history, rec)
	if len(c.history) > maxHistory {
		c.history = c.history[len(c.history)-maxHistory:]
	}
}
