package rank

import (
	"testing"

	"github.com/cliair-memcore/memcore/memtypes"
)

func floatPtr(f float64) *float64 { return &f }

func TestApplyTemporalDecayHalvesAtHalfLife(t *testing.T) {
	now := int64(30 * msPerDay)
	candidates := []memtypes.ScoredChunk{
		{Chunk: memtypes.SemanticChunk{ID: "c1", Timestamp: 0}, Score: 1.0},
	}
	decayed := ApplyTemporalDecay(candidates, now, 30)
	if decayed[0].DecayMultiplier < 0.49 || decayed[0].DecayMultiplier > 0.51 {
		t.Fatalf("expected ~0.5 multiplier at exactly one half-life, got %v", decayed[0].DecayMultiplier)
	}
}

func TestMMRAdjacentScoresNonIncreasing(t *testing.T) {
	candidates := []MMRItem{
		{Chunk: memtypes.SemanticChunk{ID: "a", Text: "react component model architecture"}, Relevance: 0.9},
		{Chunk: memtypes.SemanticChunk{ID: "b", Text: "react component design architecture"}, Relevance: 0.85},
		{Chunk: memtypes.SemanticChunk{ID: "c", Text: "postgresql acid transactions database"}, Relevance: 0.6},
		{Chunk: memtypes.SemanticChunk{ID: "d", Text: "typescript type safety generics"}, Relevance: 0.5},
	}
	selected := MMR(candidates, 4, floatPtr(DefaultLambda), floatPtr(DefaultDuplicateThreshold), JaccardSimilarity)
	for i := 1; i < len(selected); i++ {
		if selected[i].MMRScore > selected[i-1].MMRScore {
			t.Fatalf("expected non-increasing mmr_score, got %v then %v", selected[i-1].MMRScore, selected[i].MMRScore)
		}
	}
}

func TestMMRZeroKReturnsEmpty(t *testing.T) {
	candidates := []MMRItem{{Chunk: memtypes.SemanticChunk{ID: "a"}, Relevance: 1}}
	if got := MMR(candidates, 0, floatPtr(DefaultLambda), floatPtr(DefaultDuplicateThreshold), JaccardSimilarity); got != nil {
		t.Fatalf("expected nil for k=0, got %v", got)
	}
}

func TestMMRSkipsNearDuplicates(t *testing.T) {
	candidates := []MMRItem{
		{Chunk: memtypes.SemanticChunk{ID: "a", Text: "the quick brown fox jumps"}, Relevance: 0.9},
		{Chunk: memtypes.SemanticChunk{ID: "b", Text: "the quick brown fox jumps"}, Relevance: 0.89},
	}
	selected := MMR(candidates, 2, floatPtr(DefaultLambda), floatPtr(DefaultDuplicateThreshold), JaccardSimilarity)
	if len(selected) != 1 {
		t.Fatalf("expected near-duplicate to be skipped, got %d results", len(selected))
	}
}

func TestMMRNilLambdaUsesDefaultZeroLambdaIsPureDiversity(t *testing.T) {
	candidates := []MMRItem{
		{Chunk: memtypes.SemanticChunk{ID: "a", Text: "react component model architecture"}, Relevance: 0.9},
		{Chunk: memtypes.SemanticChunk{ID: "b", Text: "postgresql acid transactions database"}, Relevance: 0.1},
	}

	// nil uses the spec.md default (0.7): the far more relevant "a" wins
	// the first slot.
	withDefault := MMR(candidates, 1, nil, nil, JaccardSimilarity)
	if len(withDefault) != 1 || withDefault[0].Chunk.ID != "a" {
		t.Fatalf("expected nil lambda to fall back to DefaultLambda and pick %q, got %+v", "a", withDefault)
	}

	// An explicit λ=0 must be honoured literally (pure diversity, ignoring
	// relevance) rather than silently collapsing to the default.
	pureDiversity := MMR(candidates, 1, floatPtr(0), floatPtr(DefaultDuplicateThreshold), JaccardSimilarity)
	if len(pureDiversity) != 1 {
		t.Fatalf("expected one result, got %+v", pureDiversity)
	}
	if pureDiversity[0].MMRScore != 0 {
		t.Fatalf("expected mmr_score 0 at λ=0 with no prior picks (first term is λ*relevance=0), got %v", pureDiversity[0].MMRScore)
	}
}

func TestPipelineFiltersBelowMinScoreAndLimits(t *testing.T) {
	candidates := []memtypes.ScoredChunk{
		{Chunk: memtypes.SemanticChunk{ID: "a"}, Score: 0.9},
		{Chunk: memtypes.SemanticChunk{ID: "b"}, Score: 0.3},
		{Chunk: memtypes.SemanticChunk{ID: "c"}, Score: 0.1},
	}
	out, meta := Run(candidates, Options{MinScore: 0.2, Limit: 1})
	if len(out) != 1 {
		t.Fatalf("expected 1 output after limit, got %d", len(out))
	}
	if out[0].Chunk.ID != "a" {
		t.Fatalf("expected highest-scoring chunk to survive, got %s", out[0].Chunk.ID)
	}
	if meta.InputCount != 3 || meta.OutputCount != 1 {
		t.Fatalf("unexpected pipeline metadata: %+v", meta)
	}
}
