package rank

import (
	"math"
	"regexp"
	"strings"

	"github.com/cliair-memcore/memcore/memtypes"
)

// DefaultLambda balances relevance against diversity in MMR selection, per
// spec.md §4.5.
const DefaultLambda = 0.7

// DefaultDuplicateThreshold is the similarity above which a candidate is
// skipped entirely rather than merely down-ranked, per spec.md §4.5.
const DefaultDuplicateThreshold = 0.8

// MMRItem is a candidate carried through MMR selection with its relevance
// score (the input to diversify).
type MMRItem struct {
	Chunk     memtypes.SemanticChunk
	Relevance float64
}

// MMRResult is one selected item, annotated with the §4.5 telemetry
// fields.
type MMRResult struct {
	Chunk           memtypes.SemanticChunk
	RelevanceScore  float64
	MaxSimilarity   float64
	MMRScore        float64
}

// SimilarityFunc scores the similarity of two chunks in [0,1].
type SimilarityFunc func(a, b memtypes.SemanticChunk) float64

var wordSplitter = regexp.MustCompile(`[^a-z0-9]+`)

// JaccardSimilarity is the default similarity measure: Jaccard overlap of
// lowercased, punctuation-stripped tokens, per spec.md §4.5.
func JaccardSimilarity(a, b memtypes.SemanticChunk) float64 {
	setA := tokenSet(a.Text)
	setB := tokenSet(b.Text)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]bool {
	tokens := wordSplitter.Split(strings.ToLower(text), -1)
	out := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if t != "" {
			out[t] = true
		}
	}
	return out
}

// CosineEmbeddingSimilarity scores similarity via cosine distance on
// embeddings, for callers that opt into embedding-based MMR instead of the
// lexical default.
func CosineEmbeddingSimilarity(a, b memtypes.SemanticChunk) float64 {
	if len(a.Embedding) == 0 || len(b.Embedding) == 0 || len(a.Embedding) != len(b.Embedding) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a.Embedding {
		dot += float64(a.Embedding[i]) * float64(b.Embedding[i])
		normA += float64(a.Embedding[i]) * float64(a.Embedding[i])
		normB += float64(b.Embedding[i]) * float64(b.Embedding[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MMR selects up to k items from candidates maximizing
// λ·relevance(r) - (1-λ)·max_s similarity(r,s) at each step, per spec.md
// §4.5. A candidate whose max similarity to an already-picked item meets
// or exceeds duplicateThreshold is skipped entirely rather than merely
// down-ranked. Selection stops once k items are picked or candidates are
// exhausted.
//
// lambda and duplicateThreshold are pointers: nil means "unset, use the
// spec.md §4.5 default" (DefaultLambda / DefaultDuplicateThreshold). This
// lets a caller explicitly request λ=0 (pure diversity) or a duplicate
// threshold of 0, neither of which a bare float64 zero value could express.
func MMR(candidates []MMRItem, k int, lambda, duplicateThreshold *float64, sim SimilarityFunc) []MMRResult {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	lambdaVal := DefaultLambda
	if lambda != nil {
		lambdaVal = *lambda
	}
	duplicateThresholdVal := DefaultDuplicateThreshold
	if duplicateThreshold != nil {
		duplicateThresholdVal = *duplicateThreshold
	}
	if sim == nil {
		sim = JaccardSimilarity
	}

	remaining := append([]MMRItem{}, candidates...)
	var selected []MMRResult

	for len(remaining) > 0 && len(selected) < k {
		bestIdx := -1
		bestScore := 0.0
		bestMaxSim := 0.0

		for i, cand := range remaining {
			maxSim := 0.0
			for _, s := range selected {
				sc := sim(cand.Chunk, s.Chunk)
				if sc > maxSim {
					maxSim = sc
				}
			}
			if maxSim >= duplicateThresholdVal {
				continue
			}
			mmrScore := lambdaVal*cand.Relevance - (1-lambdaVal)*maxSim
			if bestIdx == -1 || mmrScore > bestScore {
				bestIdx = i
				bestScore = mmrScore
				bestMaxSim = maxSim
			}
		}

		if bestIdx == -1 {
			break
		}

		picked := remaining[bestIdx]
		selected = append(selected, MMRResult{
			Chunk:          picked.Chunk,
			RelevanceScore: picked.Relevance,
			MaxSimilarity:  bestMaxSim,
			MMRScore:       bestScore,
		})
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}
