package semanticstore

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/cliair-memcore/memcore/memtypes"
)

// SearchVector performs a k-nearest-neighbour search over embeddings, per
// spec.md §4.4. This implementation has no native vector backend
// (modernc.org/sqlite carries no vector extension), so Config.VectorBackendAvailable
// is always false and every call takes the exhaustive cosine-similarity
// fallback path — bounded by Config.MaxInMemoryVectorRows per DESIGN.md Open
// Question #2 so it never becomes a silent unbounded O(N) scan.
func (s *Store) SearchVector(ctx context.Context, embedding []float32, opts memtypes.ChunkSearchOptions) ([]memtypes.ScoredChunk, error) {
	if len(embedding) == 0 {
		return nil, memtypes.Newf(memtypes.KindInvalid, "semanticstore.SearchVector", "embedding must not be empty")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	count, err := s.countEmbedded(ctx, opts)
	if err != nil {
		return nil, err
	}
	if count > s.cfg.MaxInMemoryVectorRows {
		return nil, memtypes.Newf(memtypes.KindVectorDisabled, "semanticstore.SearchVector",
			"candidate set (%d rows) exceeds MaxInMemoryVectorRows (%d)", count, s.cfg.MaxInMemoryVectorRows)
	}

	rows, err := s.queryEmbedded(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []memtypes.ScoredChunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, memtypes.Wrap(memtypes.KindSemanticSearch, "semanticstore.SearchVector", err)
		}
		if len(chunk.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(embedding, chunk.Embedding)
		scored = append(scored, memtypes.ScoredChunk{Chunk: chunk, Score: score, MatchType: memtypes.MatchVector})
	}
	if err := rows.Err(); err != nil {
		return nil, memtypes.Wrap(memtypes.KindSemanticSearch, "semanticstore.SearchVector", err)
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *Store) countEmbedded(ctx context.Context, opts memtypes.ChunkSearchOptions) (int, error) {
	query, args := embeddedFilterQuery("SELECT COUNT(*)", opts)
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, memtypes.Wrap(memtypes.KindDatabase, "semanticstore.countEmbedded", err)
	}
	return n, nil
}

func (s *Store) queryEmbedded(ctx context.Context, opts memtypes.ChunkSearchOptions) (*sql.Rows, error) {
	cols := "id, text, tags, timestamp, session_id, source_event_id, source_type, metadata, embedding"
	query, args := embeddedFilterQuery("SELECT "+cols, opts)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "semanticstore.queryEmbedded", err)
	}
	return rows, nil
}

func embeddedFilterQuery(selectClause string, opts memtypes.ChunkSearchOptions) (string, []any) {
	query := selectClause + " FROM chunks WHERE embedding IS NOT NULL"
	var args []any
	if opts.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, opts.SessionID)
	}
	if len(opts.Tags) > 0 {
		clauses := make([]string, len(opts.Tags))
		for i, tag := range opts.Tags {
			clauses[i] = "tags LIKE ?"
			args = append(args, "%\""+tag+"\"%")
		}
		query += " AND (" + strings.Join(clauses, " OR ") + ")"
	}
	return query, args
}
