package treeindex

import (
	"context"
	"database/sql"
	"sort"

	"github.com/cliair-memcore/memcore/memtypes"
)

// GetChildren returns nodeID's direct children, ordered by sort_order, per
// spec.md §4.9 (closure depth=1 join).
func (s *Store) GetChildren(ctx context.Context, nodeID string) ([]memtypes.TreeNode, error) {
	rows, err := s.db.QueryContext(ctx, nodeCols+`
		FROM tree_nodes n
		JOIN tree_closure c ON c.descendant_id = n.id
		WHERE c.ancestor_id = ? AND c.depth = 1
		ORDER BY n.sort_order ASC
	`, nodeID)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "treeindex.GetChildren", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetAncestors returns nodeID's ancestors (excluding itself), ordered from
// furthest to nearest (depth DESC), per spec.md §4.9.
func (s *Store) GetAncestors(ctx context.Context, nodeID string) ([]memtypes.TreeNode, error) {
	rows, err := s.db.QueryContext(ctx, nodeCols+`
		FROM tree_nodes n
		JOIN tree_closure c ON c.ancestor_id = n.id
		WHERE c.descendant_id = ? AND c.depth > 0
		ORDER BY c.depth DESC
	`, nodeID)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "treeindex.GetAncestors", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetDescendants returns nodeID's descendants (excluding itself), optionally
// bounded to maxDepth hops (0 means unbounded), per spec.md §4.9.
func (s *Store) GetDescendants(ctx context.Context, nodeID string, maxDepth int) ([]memtypes.TreeNode, error) {
	query := nodeCols + `
		FROM tree_nodes n
		JOIN tree_closure c ON c.descendant_id = n.id
		WHERE c.ancestor_id = ? AND c.depth > 0
	`
	args := []any{nodeID}
	if maxDepth > 0 {
		query += ` AND c.depth <= ?`
		args = append(args, maxDepth)
	}
	query += ` ORDER BY c.depth ASC, n.sort_order ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "treeindex.GetDescendants", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetSubtree builds an in-memory nested structure rooted at nodeID, sorted
// by sort_order, per spec.md §4.9.
func (s *Store) GetSubtree(ctx context.Context, nodeID string) (*memtypes.SubtreeNode, error) {
	root, err := s.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	descendants, err := s.GetDescendants(ctx, nodeID, 0)
	if err != nil {
		return nil, err
	}

	byID := map[string]*memtypes.SubtreeNode{root.ID: {Node: root}}
	for _, d := range descendants {
		byID[d.ID] = &memtypes.SubtreeNode{Node: d}
	}
	for _, d := range descendants {
		parent, ok := byID[d.ParentID]
		if !ok {
			continue
		}
		parent.Children = append(parent.Children, byID[d.ID])
	}
	var sortChildren func(n *memtypes.SubtreeNode)
	sortChildren = func(n *memtypes.SubtreeNode) {
		sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Node.SortOrder < n.Children[j].Node.SortOrder })
		for _, c := range n.Children {
			sortChildren(c)
		}
	}
	sortChildren(byID[root.ID])
	return byID[root.ID], nil
}

func scanNodes(rows *sql.Rows) ([]memtypes.TreeNode, error) {
	var out []memtypes.TreeNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, memtypes.Wrap(memtypes.KindDatabase, "treeindex.scanNodes", err)
		}
		out = append(out, node)
	}
	return out, rows.Err()
}
