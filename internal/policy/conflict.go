package policy

import "github.com/cliair-memcore/memcore/memtypes"

// ConflictStrategy selects how ResolveConflict picks a winner between an
// existing ProfileItem and an incoming one, per spec.md §4.7.
type ConflictStrategy string

const (
	ConflictLatest     ConflictStrategy = "latest"
	ConflictConfidence ConflictStrategy = "confidence"
	ConflictExplicit   ConflictStrategy = "explicit"
	ConflictManual     ConflictStrategy = "manual"
)

// ConflictResolution is resolve_conflict's result, per spec.md §4.7.
type ConflictResolution struct {
	Winner     memtypes.ProfileItem
	Reason     string
	NeedsReview bool
}

// ResolveConflict picks a winner between old and new by strategy, per
// spec.md §4.7.
func (e *Engine) ResolveConflict(old, incoming memtypes.ProfileItem) ConflictResolution {
	strategy := e.ConflictStrategy
	if strategy == "" {
		strategy = ConflictLatest
	}

	switch strategy {
	case ConflictConfidence:
		if incoming.Confidence > old.Confidence {
			return ConflictResolution{Winner: incoming, Reason: "new has higher confidence"}
		}
		return ConflictResolution{Winner: old, Reason: "old has higher or equal confidence"}

	case ConflictExplicit:
		if incoming.Explicit && !old.Explicit {
			return ConflictResolution{Winner: incoming, Reason: "new is explicit, old is inferred"}
		}
		if old.Explicit && !incoming.Explicit {
			return ConflictResolution{Winner: old, Reason: "old is explicit, new is inferred"}
		}
		return ConflictResolution{Winner: incoming, Reason: "both equally explicit, latest wins"}

	case ConflictManual:
		return ConflictResolution{Winner: old, Reason: "manual strategy defers to a human", NeedsReview: true}

	default: // ConflictLatest
		return ConflictResolution{Winner: incoming, Reason: "latest wins"}
	}
}

// ValidateProfileKey fails with KindProfileKeyNotAllowed if a whitelist is
// configured and key is not in it, per spec.md §4.7.
func (e *Engine) ValidateProfileKey(key string) error {
	if e.ProfileWhitelist == nil {
		return nil
	}
	if e.ProfileWhitelist[key] {
		return nil
	}
	return memtypes.Newf(memtypes.KindProfileKeyNotAllowed, "policy.ValidateProfileKey", "key %q is not in the configured whitelist", key)
}
