package semanticstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/cliair-memcore/memcore/memtypes"
)

// tokenize splits query into FTS5 MATCH terms, dropping punctuation and
// empty tokens.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !(r == '_' || r == '-' || (r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'))
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// escapeFTSTerm escapes double quotes in a single token so it can be safely
// embedded in an FTS5 MATCH expression (spec.md §4.4 "escapes quotes").
func escapeFTSTerm(term string) string {
	return strings.ReplaceAll(term, `"`, `""`)
}

// buildMatchExpr builds a prefix-OR MATCH expression: each token becomes a
// quoted prefix query, joined with OR, per spec.md §4.4
// ("tokenises the query, escapes quotes, builds a prefix-OR expression").
func buildMatchExpr(query string) string {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = fmt.Sprintf(`"%s"*`, escapeFTSTerm(t))
	}
	return strings.Join(parts, " OR ")
}

// SearchFTS runs a bm25-ranked full-text search over chunk text/tags, per
// spec.md §4.4. Returned scores are |bm25| since SQLite's bm25() returns a
// negative value for better matches.
func (s *Store) SearchFTS(ctx context.Context, query string, opts memtypes.ChunkSearchOptions) ([]memtypes.ScoredChunk, error) {
	matchExpr := buildMatchExpr(query)
	if matchExpr == "" {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	sqlQuery := `
		SELECT c.id, c.text, c.tags, c.timestamp, c.session_id, c.source_event_id, c.source_type, c.metadata, c.embedding,
		       bm25(chunks_fts) AS rank
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		WHERE chunks_fts MATCH ?
	`
	args := []any{matchExpr}

	if opts.SessionID != "" {
		sqlQuery += " AND c.session_id = ?"
		args = append(args, opts.SessionID)
	}
	if len(opts.Tags) > 0 {
		clauses := make([]string, len(opts.Tags))
		for i, tag := range opts.Tags {
			clauses[i] = "c.tags LIKE ?"
			args = append(args, "%\""+tag+"\"%")
		}
		sqlQuery += " AND (" + strings.Join(clauses, " OR ") + ")"
	}

	sqlQuery += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindSemanticSearch, "semanticstore.SearchFTS", err)
	}
	defer rows.Close()

	var out []memtypes.ScoredChunk
	for rows.Next() {
		var rank float64
		chunk, rawScan := scanChunkWithRank(rows, &rank)
		if rawScan != nil {
			return nil, memtypes.Wrap(memtypes.KindSemanticSearch, "semanticstore.SearchFTS", rawScan)
		}
		out = append(out, memtypes.ScoredChunk{Chunk: chunk, Score: absFloat(rank), MatchType: memtypes.MatchFTS})
	}
	if err := rows.Err(); err != nil {
		return nil, memtypes.Wrap(memtypes.KindSemanticSearch, "semanticstore.SearchFTS", err)
	}
	return out, nil
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
