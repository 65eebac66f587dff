package manager

import (
	"context"

	"github.com/cliair-memcore/memcore/internal/compact"
	"github.com/cliair-memcore/memcore/memtypes"
)

// UpdateTokenCount reports the current context-window token usage to the
// compaction controller, per spec.md §4.8. Callers integrating an LLM
// context window must call this with the live count — Health and
// ShouldCompact are meaningless against a stale or zero count.
func (m *Manager) UpdateTokenCount(n int) {
	m.compactor.UpdateTokenCount(n)
}

// Health reports the compaction controller's current flush recommendation.
func (m *Manager) Health() compact.HealthStatus {
	return m.compactor.Health()
}

// ShouldCompact reports whether a compaction pass is currently warranted.
func (m *Manager) ShouldCompact() compact.FlushCheck {
	return m.compactor.ShouldCompact()
}

// GetCompactionState exposes the controller's internal counters and
// history, per spec.md §6.
func (m *Manager) GetCompactionState() compact.State {
	return m.compactor.GetState()
}

// ResetCompactionState zeroes the controller's counters, e.g. at the start
// of a fresh session.
func (m *Manager) ResetCompactionState() {
	m.compactor.ResetState()
}

// chunkWriter adapts the semantic store's Add method to the
// compact.ChunkWriter signature, writing every extracted chunk under the
// current session.
func (m *Manager) chunkWriter() compact.ChunkWriter {
	return func(ctx context.Context, inputs []memtypes.ChunkInput) error {
		sessionID := m.GetSessionID()
		for i := range inputs {
			if inputs[i].SessionID == "" {
				inputs[i].SessionID = sessionID
			}
			if _, err := m.chunks.Add(ctx, inputs[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

// Compact runs a compaction pass over the given session's most recent
// events (capped by eventsSinceFlush, per the controller's own counters),
// writing the extracted content to the semantic store, per spec.md §4.8.
func (m *Manager) Compact(ctx context.Context, opts compact.CompactOptions) (compact.CompactResult, error) {
	events, err := m.eventsSinceLastFlush(ctx)
	if err != nil {
		return compact.CompactResult{}, err
	}
	return m.compactor.Compact(ctx, events, opts, m.chunkWriter())
}

// PerformFlush runs Compact unconditionally when force is true, otherwise
// only when ShouldCompact reports it is warranted, per spec.md §4.8.
func (m *Manager) PerformFlush(ctx context.Context, force bool, opts compact.CompactOptions) (compact.CompactResult, error) {
	events, err := m.eventsSinceLastFlush(ctx)
	if err != nil {
		return compact.CompactResult{}, err
	}
	return m.compactor.PerformFlush(ctx, events, force, opts, m.chunkWriter())
}

func (m *Manager) eventsSinceLastFlush(ctx context.Context) ([]memtypes.Event, error) {
	state := m.compactor.GetState()
	limit := state.EventsSinceFlush
	if limit <= 0 {
		return nil, nil
	}
	return m.events.GetRecent(ctx, limit, m.GetSessionID())
}
