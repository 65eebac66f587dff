package compact

import (
	"context"

	"github.com/cliair-memcore/memcore/memtypes"
)

// ChunkWriter persists the SemanticChunk inputs a compaction extracts.
// Compact calls it with every chunk FlushContent.ToChunkInputs produced,
// in one batch. The Manager's writer adds them to semanticstore one at a
// time without a surrounding transaction, so a failure partway through
// leaves the earlier chunks written.
type ChunkWriter func(ctx context.Context, inputs []memtypes.ChunkInput) error

// CompactOptions parameterizes Compact/PerformFlush, per spec.md §4.8/§6.
type CompactOptions struct {
	EventTypes []memtypes.EventType
	// TokensPerChunk estimates the post-compaction token reduction: each
	// written chunk is assumed to replace this many raw event tokens in
	// the live context. Defaults to 50 when zero.
	TokensPerChunk int
	// Force makes Compact run against a zero-length event list, per
	// spec.md §4.8 ("zero-length event list to compact returns
	// success:false unless force"). It has no effect when events is
	// non-empty.
	Force bool
}

// CompactResult is compact/perform_flush's result, per spec.md §4.8.
type CompactResult struct {
	Success       bool
	Reason        string
	EventsFlushed int
	ChunksWritten int
	TokensBefore  int
	TokensAfter   int
	Timestamp     int64
}

const defaultTokensPerChunk = 50

// ShouldCompact reports whether the controller's own live counters
// currently call for a flush, per spec.md §6 should_compact().
func (c *Controller) ShouldCompact() FlushCheck {
	c.mu.Lock()
	tokens, events := c.currentTokens, c.eventsSinceFlush
	c.mu.Unlock()
	return c.CheckFlush(tokens, events)
}

// Compact runs extraction and writes the resulting chunks, guarded
// against reentrant execution: a compaction already running returns
// {success:false, reason:already_in_progress} immediately rather than
// queuing behind it, per spec.md §4.8. The actual extraction/write pass
// additionally runs inside a singleflight.Group, so that a caller
// invoking Compact from multiple goroutines right as the in-progress flag
// clears still observes at most one live extraction pass rather than a
// duplicate one racing in behind it.
func (c *Controller) Compact(ctx context.Context, events []memtypes.Event, opts CompactOptions, write ChunkWriter) (CompactResult, error) {
	if len(events) == 0 && !opts.Force {
		return CompactResult{Success: false, Reason: "no_events"}, nil
	}

	c.mu.Lock()
	if c.compactionInProgress {
		c.mu.Unlock()
		return CompactResult{Success: false, Reason: "already_in_progress"}, nil
	}
	c.compactionInProgress = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.compactionInProgress = false
		c.mu.Unlock()
	}()

	v, err, _ := c.group.Do("compact", func() (any, error) {
		return c.compactOnce(ctx, events, opts, write)
	})
	if err != nil {
		return CompactResult{}, err
	}
	return v.(CompactResult), nil
}

func (c *Controller) compactOnce(ctx context.Context, events []memtypes.Event, opts CompactOptions, write ChunkWriter) (CompactResult, error) {
	c.mu.Lock()
	tokensBefore := c.currentTokens
	sessionID := ""
	if len(events) > 0 {
		sessionID = events[0].SessionID
	}
	c.mu.Unlock()

	content := ExtractFlushContent(events, opts.EventTypes)
	chunks := content.ToChunkInputs(sessionID)

	if write != nil && len(chunks) > 0 {
		if err := write(ctx, chunks); err != nil {
			return CompactResult{}, memtypes.Wrap(memtypes.KindDatabase, "compact.Compact", err)
		}
	}

	tokensPerChunk := opts.TokensPerChunk
	if tokensPerChunk <= 0 {
		tokensPerChunk = defaultTokensPerChunk
	}

	c.mu.Lock()
	reduction := len(chunks) * tokensPerChunk
	tokensAfter := c.currentTokens - reduction
	if tokensAfter < 0 {
		tokensAfter = 0
	}
	c.currentTokens = tokensAfter
	flushed := c.eventsSinceFlush
	c.eventsSinceFlush = 0
	c.lastFlushTimestamp = memtypes.NowMillis()
	result := CompactResult{
		Success:       true,
		Reason:        "compacted",
		EventsFlushed: flushed,
		ChunksWritten: len(chunks),
		TokensBefore:  tokensBefore,
		TokensAfter:   tokensAfter,
		Timestamp:     c.lastFlushTimestamp,
	}
	c.recordHistory(HistoryRecord{
		Timestamp:     result.Timestamp,
		EventsFlushed: result.EventsFlushed,
		TokensBefore:  result.TokensBefore,
		TokensAfter:   result.TokensAfter,
		ChunksWritten: result.ChunksWritten,
	})
	cb := c.onCompaction
	c.mu.Unlock()

	if cb != nil {
		cb(result)
	}
	return result, nil
}

// PerformFlush checks should_compact (unless force) before running
// Compact, per spec.md §6 perform_flush(events, {force?}).
func (c *Controller) PerformFlush(ctx context.Context, events []memtypes.Event, force bool, opts CompactOptions, write ChunkWriter) (CompactResult, error) {
	if !force {
		check := c.ShouldCompact()
		if !check.ShouldFlush {
			return CompactResult{Success: false, Reason: string(check.Reason)}, nil
		}
	}
	if force {
		opts.Force = true
	}
	return c.Compact(ctx, events, opts, write)
}
