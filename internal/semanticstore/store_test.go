package semanticstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cliair-memcore/memcore/memtypes"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "semantic.db")
	s, err := Open(ctx, path, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	chunk, err := s.Add(ctx, memtypes.ChunkInput{Text: "React component model", Tags: []string{"decision"}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := s.Get(ctx, chunk.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Text != chunk.Text || !got.Tags.Has("decision") {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestAddRejectsEmptyText(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	if _, err := s.Add(ctx, memtypes.ChunkInput{Text: ""}); !memtypes.Is(err, memtypes.KindInvalid) {
		t.Fatalf("expected KindInvalid, got %v", err)
	}
}

func TestSearchEmptyQueryReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	if _, err := s.Add(ctx, memtypes.ChunkInput{Text: "anything"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := s.Search(ctx, "", memtypes.ChunkSearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results for empty query, got %d", len(results))
	}
}

func TestChunkWithoutEmbeddingSearchableByFTSNotVector(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	chunk, err := s.Add(ctx, memtypes.ChunkInput{Text: "PostgreSQL ACID guarantees"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(chunk.Embedding) != 0 {
		t.Fatalf("expected no embedding stored without embed func, got %v", chunk.Embedding)
	}

	ftsResults, err := s.SearchFTS(ctx, "ACID", memtypes.ChunkSearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("SearchFTS: %v", err)
	}
	found := false
	for _, r := range ftsResults {
		if r.Chunk.ID == chunk.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected chunk findable via FTS, got %+v", ftsResults)
	}

	probe := make([]float32, DefaultConfig().Dimension)
	probe[0] = 1
	vecResults, err := s.SearchVector(ctx, probe, memtypes.ChunkSearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("SearchVector: %v", err)
	}
	for _, r := range vecResults {
		if r.Chunk.ID == chunk.ID {
			t.Fatalf("chunk without embedding must not appear in vector search results")
		}
	}
}

func TestHybridSearchScoresDistinctAndBounded(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	texts := []string{"React component model", "PostgreSQL ACID guarantees", "TypeScript type safety"}
	for _, text := range texts {
		if _, err := s.Add(ctx, memtypes.ChunkInput{Text: text, Tags: []string{"decision"}}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	results, err := s.Search(ctx, "React component", memtypes.ChunkSearchOptions{Tags: []string{"decision"}, Limit: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one result")
	}

	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.Chunk.ID] {
			t.Fatalf("duplicate chunk id %s in results", r.Chunk.ID)
		}
		seen[r.Chunk.ID] = true
		if r.Score < 0 || r.Score > 1 {
			t.Fatalf("score out of [0,1]: %v", r.Score)
		}
	}
	if results[0].Chunk.Text != "React component model" {
		t.Fatalf("expected React chunk to rank first, got %q", results[0].Chunk.Text)
	}
}

func TestEmbeddingCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	vec, ok, err := s.cacheGet(ctx, "hello world", "default", "default")
	if err != nil {
		t.Fatalf("cacheGet: %v", err)
	}
	if ok {
		t.Fatalf("expected cache miss before any set, got %v", vec)
	}

	want := []float32{0.1, 0.2, 0.3}
	if err := s.cacheSet(ctx, "hello world", "default", "default", want); err != nil {
		t.Fatalf("cacheSet: %v", err)
	}

	got, ok, err := s.cacheGet(ctx, "hello world", "default", "default")
	if err != nil {
		t.Fatalf("cacheGet: %v", err)
	}
	if !ok {
		t.Fatalf("expected cache hit after set")
	}
	if len(got) != len(want) {
		t.Fatalf("round-trip length mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("round-trip value mismatch at %d: got %v want %v", i, got[i], want[i])
		}
	}
}
