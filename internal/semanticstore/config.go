package semanticstore

import "context"

// EmbeddingFunc computes an embedding for text. It may block on IO (spec.md
// §5 "embedding-function invocations (caller-supplied; may be
// network-bound)"); implementations should honour ctx cancellation.
// Grounded on the teacher's EmbeddingProvider.Embed(text) interface method.
type EmbeddingFunc func(ctx context.Context, text string) ([]float32, error)

// Config configures a Store at construction (spec.md §6 "vector dimension,
// embedding provider/model identifiers").
type Config struct {
	// Dimension is the fixed embedding width D (spec.md §3 SemanticChunk.embedding).
	Dimension int
	// Provider and Model identify the embedding source for cache keying,
	// so caches from one configuration are never misused by another
	// (spec.md §6).
	Provider string
	Model    string
	// FTSWeight/VectorWeight are the hybrid fusion weights (spec.md §4.4
	// default {fts: 0.3, vector: 0.7}).
	FTSWeight    float64
	VectorWeight float64
	// MaxInMemoryVectorRows bounds the brute-force cosine fallback scan
	// (DESIGN.md Open Question #2): above this row count SearchVector
	// returns KindVectorDisabled instead of silently scanning every row.
	MaxInMemoryVectorRows int
	// VectorBackendAvailable reports whether a native k-NN vector index is
	// present. This implementation has none (modernc.org/sqlite carries no
	// vector extension), so it is always false; the field exists so a
	// future backend swap needs no API change.
	VectorBackendAvailable bool
}

// DefaultConfig returns the spec.md §4.4 defaults.
func DefaultConfig() Config {
	return Config{
		Dimension:              768,
		Provider:               "default",
		Model:                  "default",
		FTSWeight:              0.3,
		VectorWeight:           0.7,
		MaxInMemoryVectorRows:  20000,
		VectorBackendAvailable: false,
	}
}
