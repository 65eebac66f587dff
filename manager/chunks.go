package manager

import (
	"context"

	"github.com/cliair-memcore/memcore/internal/semanticstore"
	"github.com/cliair-memcore/memcore/memtypes"
)

// AddChunk delegates to the semantic store, per spec.md §6.
func (m *Manager) AddChunk(ctx context.Context, input memtypes.ChunkInput) (memtypes.SemanticChunk, error) {
	if input.SessionID == "" {
		input.SessionID = m.GetSessionID()
	}
	return m.chunks.Add(ctx, input)
}

// SetEmbedFunc installs the embedding function the semantic store uses
// for chunks added without an explicit embedding, per spec.md §6.
func (m *Manager) SetEmbedFunc(fn semanticstore.EmbeddingFunc) {
	m.chunks.SetEmbedFunc(fn)
}

// SearchChunks delegates to the semantic store's hybrid search, per
// spec.md §6.
func (m *Manager) SearchChunks(ctx context.Context, query string, opts memtypes.ChunkSearchOptions) ([]memtypes.ScoredChunk, error) {
	return m.chunks.Search(ctx, query, opts)
}
