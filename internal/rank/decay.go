// Package rank implements spec.md §4.5's ranking pipeline stages: temporal
// decay, MMR diversification, and score filter/limit. Every function here
// is pure — no IO, no database handle — so the retriever composes them
// freely over whatever candidate set it already fetched. Grounded on the
// teacher's internal/memory relevance-scoring pass, generalized to the
// three-stage pipeline spec.md §4.5 describes.
package rank

import (
	"math"

	"github.com/cliair-memcore/memcore/memtypes"
)

// DefaultHalfLifeDays is the temporal decay half-life, per spec.md §4.5.
const DefaultHalfLifeDays = 30

// msPerDay is the millisecond count of one day, used to convert the
// half-life (given in days) into the same unit as Unix-ms timestamps.
const msPerDay = 86_400_000

// DecayedItem is a scored candidate annotated with the decay stage's
// telemetry fields, per spec.md §4.5.
type DecayedItem struct {
	Chunk            memtypes.SemanticChunk
	OriginalScore    float64
	DecayedScore     float64
	AgeInDays        float64
	DecayMultiplier  float64
}

// ApplyTemporalDecay multiplies each candidate's score by
// 2^(-(now-timestamp)/(halfLifeDays*msPerDay)), per spec.md §4.5. A
// halfLifeDays <= 0 falls back to DefaultHalfLifeDays.
func ApplyTemporalDecay(candidates []memtypes.ScoredChunk, now int64, halfLifeDays float64) []DecayedItem {
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	halfLifeMs := halfLifeDays * msPerDay

	out := make([]DecayedItem, len(candidates))
	for i, c := range candidates {
		ageMs := float64(now - c.Chunk.Timestamp)
		if ageMs < 0 {
			ageMs = 0
		}
		multiplier := math.Exp2(-ageMs / halfLifeMs)
		out[i] = DecayedItem{
			Chunk:           c.Chunk,
			OriginalScore:   c.Score,
			DecayedScore:    c.Score * multiplier,
			AgeInDays:       ageMs / msPerDay,
			DecayMultiplier: multiplier,
		}
	}
	return out
}
