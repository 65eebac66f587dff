package treeindex

import (
	"context"
	"sort"
	"strings"

	"github.com/cliair-memcore/memcore/memtypes"
)

// TreeSearchOptions parameterizes SearchInSubtree.
type TreeSearchOptions struct {
	NodeTypes       []string
	Limit           int
	IncludeAncestors bool
}

// SearchInSubtree runs a semantic search restricted to chunks linked
// somewhere within rootNodeID's subtree, per spec.md §4.9: fetch the
// subtree's chunk ids, run hybrid search at limit*2, intersect, map
// surviving chunks back to tree nodes (optionally filtering node_types and
// attaching ancestors).
func (s *Store) SearchInSubtree(ctx context.Context, query, rootNodeID string, opts TreeSearchOptions) ([]memtypes.TreeSearchResult, error) {
	if s.searcher == nil {
		return nil, memtypes.Newf(memtypes.KindInvalid, "treeindex.SearchInSubtree", "no chunk searcher configured")
	}

	chunkIDs, err := s.GetChunksInSubtree(ctx, rootNodeID)
	if err != nil {
		return nil, err
	}
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	inSubtree := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		inSubtree[id] = true
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	scored, err := s.searcher.Search(ctx, query, memtypes.ChunkSearchOptions{Limit: limit * 2})
	if err != nil {
		return nil, err
	}

	allowedTypes := map[string]bool{}
	for _, t := range opts.NodeTypes {
		allowedTypes[t] = true
	}

	var out []memtypes.TreeSearchResult
	for _, sc := range scored {
		if !inSubtree[sc.Chunk.ID] {
			continue
		}
		nodes, err := s.GetNodesByChunkID(ctx, sc.Chunk.ID)
		if err != nil {
			return nil, err
		}
		for _, node := range nodes {
			if len(allowedTypes) > 0 && !allowedTypes[node.NodeType] {
				continue
			}
			chunk := sc.Chunk
			result := memtypes.TreeSearchResult{
				Node:      node,
				Score:     sc.Score,
				MatchType: sc.MatchType,
				Chunk:     &chunk,
			}
			if opts.IncludeAncestors {
				ancestors, err := s.GetAncestors(ctx, node.ID)
				if err != nil {
					return nil, err
				}
				result.Ancestors = ancestors
			}
			out = append(out, result)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SearchByName performs a LIKE search over node names within a root,
// scoring exact=1.0, prefix=0.8, contains=0.5, per spec.md §4.9.
func (s *Store) SearchByName(ctx context.Context, rootID, name string, opts TreeSearchOptions) ([]memtypes.TreeSearchResult, error) {
	return s.searchByColumn(ctx, rootID, "name", name, memtypes.MatchName, opts)
}

// SearchByPath performs a LIKE search over node paths within a root,
// scoring exact=1.0, prefix=0.8, contains=0.5, per spec.md §4.9.
func (s *Store) SearchByPath(ctx context.Context, rootID, path string, opts TreeSearchOptions) ([]memtypes.TreeSearchResult, error) {
	return s.searchByColumn(ctx, rootID, "path", path, memtypes.MatchPath, opts)
}

func (s *Store) searchByColumn(ctx context.Context, rootID, column, value string, matchType memtypes.MatchType, opts TreeSearchOptions) ([]memtypes.TreeSearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, nodeCols+` FROM tree_nodes WHERE tree_root_id = ? AND `+column+` LIKE ?`,
		rootID, "%"+value+"%")
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "treeindex.searchByColumn", err)
	}
	defer rows.Close()
	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, err
	}

	var out []memtypes.TreeSearchResult
	for _, node := range nodes {
		field := node.Name
		if column == "path" {
			field = node.Path
		}
		score := scoreMatch(field, value)
		result := memtypes.TreeSearchResult{Node: node, Score: score, MatchType: matchType}
		if opts.IncludeAncestors {
			ancestors, err := s.GetAncestors(ctx, node.ID)
			if err != nil {
				return nil, err
			}
			result.Ancestors = ancestors
		}
		out = append(out, result)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func scoreMatch(field, query string) float64 {
	if field == query {
		return 1.0
	}
	if strings.HasPrefix(field, query) {
		return 0.8
	}
	return 0.5
}
