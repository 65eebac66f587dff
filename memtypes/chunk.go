package memtypes

// SemanticChunk is a short text fragment indexed for semantic retrieval,
// per spec.md §3 and §4.4.
type SemanticChunk struct {
	ID            string    `json:"id"`
	Timestamp     int64     `json:"timestamp"`
	Text          string    `json:"text"`
	Tags          StringSet `json:"tags,omitempty"`
	SourceEventID string    `json:"source_event_id,omitempty"`
	SourceType    string    `json:"source_type,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
	Embedding     []float32 `json:"embedding,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ChunkInput is the caller-supplied shape for SemanticStore.Add.
type ChunkInput struct {
	Text          string
	Tags          []string
	SourceEventID string
	SourceType    string
	SessionID     string
	Embedding     []float32
	Metadata      map[string]any
}

// MatchType tags the provenance of a search result, per spec.md §9
// ("a tagged enum over match_type suffices for result provenance").
type MatchType string

const (
	MatchFTS    MatchType = "fts"
	MatchVector MatchType = "vector"
	MatchHybrid MatchType = "hybrid"
	MatchPath   MatchType = "path"
	MatchName   MatchType = "name"
)

// ChunkSearchOptions parameterizes SemanticStore.Search/SearchFTS/SearchVector.
type ChunkSearchOptions struct {
	Tags             []string
	SessionID        string
	Limit            int
	DisableFTS       bool
	DisableVector    bool
	FTSWeight        float64
	VectorWeight     float64
	Embedding        []float32
}

// ScoredChunk is a SemanticChunk annotated with a search score and match
// provenance.
type ScoredChunk struct {
	Chunk     SemanticChunk `json:"chunk"`
	Score     float64       `json:"score"`
	MatchType MatchType     `json:"match_type"`
}

// EmbeddingCacheEntry is keyed by (sha256(text), provider, model), per
// spec.md §3.
type EmbeddingCacheEntry struct {
	Vector    []float32
	CreatedAt int64
}
