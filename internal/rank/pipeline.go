package rank

import (
	"sort"

	"github.com/cliair-memcore/memcore/memtypes"
)

// Options configures Pipeline.Run. Any stage can be disabled by its
// corresponding Enable flag, per spec.md §4.5 ("toggleable stages").
type Options struct {
	EnableTemporalDecay bool
	HalfLifeDays        float64

	EnableMMR bool
	// Lambda and DuplicateThreshold are pointers so that the valid value 0
	// (pure diversity, and "skip on any similarity" respectively) can be
	// distinguished from "unset, use the spec.md §4.5 default" — a bare
	// float64 zero value can't carry that distinction. Nil means unset.
	Lambda             *float64
	DuplicateThreshold *float64
	Similarity         SimilarityFunc
	MMRCandidatesK     int

	MinScore float64
	Limit    int

	Now int64
}

// ItemMetadata carries the per-item telemetry fields spec.md §4.5 requires
// on every ranked result.
type ItemMetadata struct {
	OriginalScore   float64
	DecayedScore    *float64
	AgeInDays       *float64
	DecayMultiplier *float64
	RelevanceScore  *float64
	MaxSimilarity   *float64
	MMRScore        *float64
}

// RankedItem is a chunk plus its final score and the metadata recording
// which stages touched it.
type RankedItem struct {
	Chunk    memtypes.SemanticChunk
	Score    float64
	Metadata ItemMetadata
}

// PipelineMetadata carries the pipeline-level telemetry spec.md §4.5
// requires.
type PipelineMetadata struct {
	InputCount           int
	OutputCount          int
	FilteredCount        int
	TemporalDecayApplied bool
	MMRApplied           bool
}

// Run executes the three-stage ranking pipeline (temporal decay → MMR →
// score filter/limit) over candidates, per spec.md §4.5.
func Run(candidates []memtypes.ScoredChunk, opts Options) ([]RankedItem, PipelineMetadata) {
	meta := PipelineMetadata{InputCount: len(candidates)}
	if len(candidates) == 0 {
		return nil, meta
	}

	items := make([]RankedItem, len(candidates))
	for i, c := range candidates {
		items[i] = RankedItem{Chunk: c.Chunk, Score: c.Score, Metadata: ItemMetadata{OriginalScore: c.Score}}
	}

	if opts.EnableTemporalDecay {
		decayed := ApplyTemporalDecay(candidates, opts.Now, opts.HalfLifeDays)
		for i, d := range decayed {
			age, mult, score := d.AgeInDays, d.DecayMultiplier, d.DecayedScore
			items[i].Score = score
			items[i].Metadata.DecayedScore = &score
			items[i].Metadata.AgeInDays = &age
			items[i].Metadata.DecayMultiplier = &mult
		}
		meta.TemporalDecayApplied = true
	}

	if opts.EnableMMR {
		k := opts.MMRCandidatesK
		if k <= 0 {
			k = len(items)
		}
		mmrInput := make([]MMRItem, len(items))
		for i, it := range items {
			mmrInput[i] = MMRItem{Chunk: it.Chunk, Relevance: it.Score}
		}
		selected := MMR(mmrInput, k, opts.Lambda, opts.DuplicateThreshold, opts.Similarity)

		byID := make(map[string]RankedItem, len(items))
		for _, it := range items {
			byID[it.Chunk.ID] = it
		}

		reordered := make([]RankedItem, 0, len(selected))
		for _, s := range selected {
			base := byID[s.Chunk.ID]
			rel, sim, mmrScore := s.RelevanceScore, s.MaxSimilarity, s.MMRScore
			base.Metadata.RelevanceScore = &rel
			base.Metadata.MaxSimilarity = &sim
			base.Metadata.MMRScore = &mmrScore
			base.Score = mmrScore
			reordered = append(reordered, base)
		}
		items = reordered
		meta.MMRApplied = true
	} else {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	}

	var out []RankedItem
	for _, it := range items {
		if it.Score < opts.MinScore {
			meta.FilteredCount++
			continue
		}
		out = append(out, it)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		meta.FilteredCount += len(out) - opts.Limit
		out = out[:opts.Limit]
	}

	meta.OutputCount = len(out)
	return out, meta
}
