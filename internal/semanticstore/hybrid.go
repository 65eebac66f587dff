package semanticstore

import (
	"context"
	"sort"

	"github.com/cliair-memcore/memcore/memtypes"
)

// Search runs the hybrid FTS+vector fusion described in spec.md §4.4.
func (s *Store) Search(ctx context.Context, query string, opts memtypes.ChunkSearchOptions) ([]memtypes.ScoredChunk, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	fanOut := opts
	fanOut.Limit = limit * 2

	var ftsResults []memtypes.ScoredChunk
	if !opts.DisableFTS {
		res, err := s.SearchFTS(ctx, query, fanOut)
		if err != nil {
			return nil, err
		}
		ftsResults = res
	}

	var vecResults []memtypes.ScoredChunk
	if !opts.DisableVector {
		embedding := opts.Embedding
		if len(embedding) == 0 && s.embed != nil && query != "" {
			embedding = s.resolveEmbedding(ctx, query, nil)
		}
		if len(embedding) > 0 {
			res, err := s.SearchVector(ctx, embedding, fanOut)
			if err != nil {
				if memtypes.Is(err, memtypes.KindVectorDisabled) {
					s.logger.Warn("vector search skipped in hybrid search", "error", err)
				} else {
					return nil, err
				}
			} else {
				vecResults = res
			}
		}
	}

	if ftsResults == nil && vecResults == nil {
		return nil, nil
	}

	ftsWeight := s.cfg.FTSWeight
	vecWeight := s.cfg.VectorWeight
	if opts.FTSWeight != 0 || opts.VectorWeight != 0 {
		ftsWeight, vecWeight = opts.FTSWeight, opts.VectorWeight
	}

	ftsNorm := normalize(ftsResults)
	vecNorm := normalize(vecResults)

	combined := map[string]*memtypes.ScoredChunk{}
	order := []string{}
	for id, norm := range ftsNorm {
		c := ftsByID(ftsResults, id)
		combined[id] = &memtypes.ScoredChunk{Chunk: c, Score: ftsWeight * norm, MatchType: memtypes.MatchHybrid}
		order = append(order, id)
	}
	for id, norm := range vecNorm {
		if existing, ok := combined[id]; ok {
			existing.Score += vecWeight * norm
			continue
		}
		c := ftsByID(vecResults, id)
		combined[id] = &memtypes.ScoredChunk{Chunk: c, Score: vecWeight * norm, MatchType: memtypes.MatchHybrid}
		order = append(order, id)
	}

	out := make([]memtypes.ScoredChunk, 0, len(combined))
	for _, id := range order {
		out = append(out, *combined[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func normalize(results []memtypes.ScoredChunk) map[string]float64 {
	if len(results) == 0 {
		return nil
	}
	max := results[0].Score
	for _, r := range results {
		if r.Score > max {
			max = r.Score
		}
	}
	out := make(map[string]float64, len(results))
	for _, r := range results {
		if max == 0 {
			out[r.Chunk.ID] = 0
		} else {
			out[r.Chunk.ID] = r.Score / max
		}
	}
	return out
}

func ftsByID(results []memtypes.ScoredChunk, id string) memtypes.SemanticChunk {
	for _, r := range results {
		if r.Chunk.ID == id {
			return r.Chunk
		}
	}
	return memtypes.SemanticChunk{}
}
