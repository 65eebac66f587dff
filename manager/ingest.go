package manager

import (
	"context"

	"github.com/cliair-memcore/memcore/internal/policy"
	"github.com/cliair-memcore/memcore/memtypes"
)

// RecordEvent persists input, notifies observers, then runs the
// write-policy engine to decide which derived layers (profile, semantic,
// summary) should receive a copy, per spec.md §4.7/§6. A derived-write
// failure is logged, never propagated — the event itself is already
// durably recorded, per spec.md §7 ("the memory stream is not a
// transactional whole with derived artefacts").
func (m *Manager) RecordEvent(ctx context.Context, input memtypes.EventInput) (memtypes.Event, error) {
	if input.SessionID == "" {
		input.SessionID = m.GetSessionID()
	}

	ev, err := m.events.Add(ctx, input)
	if err != nil {
		return memtypes.Event{}, err
	}

	m.compactor.RecordEvent()
	m.notifyObservers(ev)
	m.applyWritePolicy(ctx, ev)

	return ev, nil
}

func (m *Manager) applyWritePolicy(ctx context.Context, ev memtypes.Event) {
	decision := m.policy.DecideWrite(ev)
	if !decision.ShouldWrite {
		return
	}

	for _, layer := range decision.TargetLayers {
		switch layer {
		case policy.LayerSemantic:
			m.writeSemanticDerived(ctx, ev)
		case policy.LayerProfile:
			m.writeProfileDerived(ctx, ev)
		case policy.LayerSummary:
			m.writeSummaryDerived(ctx, ev)
		}
	}
}

func (m *Manager) writeSemanticDerived(ctx context.Context, ev memtypes.Event) {
	_, err := m.chunks.Add(ctx, memtypes.ChunkInput{
		Text:          ev.Summary,
		Tags:          append([]string{"derived"}, string(ev.Type)),
		SourceEventID: ev.ID,
		SourceType:    string(ev.Type),
		SessionID:     ev.SessionID,
	})
	if err != nil {
		m.logger.Error("write-policy semantic write failed", "event_id", ev.ID, "err", err)
	}
}

// writeProfileDerived extracts preferences from ev and persists any whose
// key passes the whitelist, resolving a collision with the existing
// profile item via the configured ConflictStrategy (spec.md §4.7).
func (m *Manager) writeProfileDerived(ctx context.Context, ev memtypes.Event) {
	text := ev.Summary
	for _, pref := range policy.ExtractPreferences(text) {
		key := string(pref.Kind)
		if err := m.policy.ValidateProfileKey(key); err != nil {
			m.logger.Warn("write-policy profile write skipped", "key", key, "reason", err)
			continue
		}

		incoming := memtypes.ProfileItem{
			Key:           key,
			Value:         pref.Value,
			Confidence:    pref.Confidence,
			SourceEventID: ev.ID,
			Explicit:      false,
		}

		if existing, err := m.profiles.Get(ctx, key); err == nil {
			resolution := m.policy.ResolveConflict(existing, incoming)
			incoming = resolution.Winner
		}

		if _, err := m.profiles.Set(ctx, memtypes.ProfileInput{
			Key:           incoming.Key,
			Value:         incoming.Value,
			Confidence:    incoming.Confidence,
			SourceEventID: incoming.SourceEventID,
			Explicit:      incoming.Explicit,
		}); err != nil {
			m.logger.Error("write-policy profile write failed", "key", key, "err", err)
		}
	}
}

func (m *Manager) writeSummaryDerived(ctx context.Context, ev memtypes.Event) {
	_, err := m.summaries.Add(ctx, memtypes.SummaryInput{
		SessionID:       ev.SessionID,
		Short:           ev.Summary,
		CoveredEventIDs: []string{ev.ID},
	})
	if err != nil {
		m.logger.Error("write-policy summary write failed", "event_id", ev.ID, "err", err)
	}
}
