package treeindex

import (
	"context"
	"database/sql"

	"github.com/cliair-memcore/memcore/memtypes"
)

// MoveSubtree reparents node under newParentID, per spec.md §4.9: for
// every descendant D of node (including node itself), drop D's closure
// rows whose ancestor lies outside the moved subtree, then reinsert one row per ancestor A of the new parent
// (including the new parent itself, via its self-row) at
// depth(A→new_parent) + relative_depth(node→D) + 1.
func (s *Store) MoveSubtree(ctx context.Context, nodeID, newParentID string) (memtypes.TreeNode, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
	}
	defer tx.Rollback()

	newParentRow := tx.QueryRowContext(ctx, nodeCols+` FROM tree_nodes WHERE id = ?`, newParentID)
	newParent, err := scanNode(newParentRow)
	if err == sql.ErrNoRows {
		return memtypes.TreeNode{}, memtypes.Newf(memtypes.KindNotFound, "treeindex.MoveSubtree", "new parent %s not found", newParentID)
	}
	if err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
	}

	// Capture relative depth from node to every descendant (incl. self)
	// before any closure rows are touched.
	rows, err := tx.QueryContext(ctx, `SELECT descendant_id, depth FROM tree_closure WHERE ancestor_id = ?`, nodeID)
	if err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
	}
	type descRow struct {
		id    string
		depth int
	}
	var descendants []descRow
	for rows.Next() {
		var d descRow
		if err := rows.Scan(&d.id, &d.depth); err != nil {
			rows.Close()
			return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
		}
		descendants = append(descendants, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
	}

	// Ancestors of the new parent (incl. itself via self-row depth 0).
	parentAncestorRows, err := tx.QueryContext(ctx, `SELECT ancestor_id, depth FROM tree_closure WHERE descendant_id = ?`, newParentID)
	if err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
	}
	var newParentAncestors []descRow
	for parentAncestorRows.Next() {
		var a descRow
		if err := parentAncestorRows.Scan(&a.id, &a.depth); err != nil {
			parentAncestorRows.Close()
			return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
		}
		newParentAncestors = append(newParentAncestors, a)
	}
	parentAncestorRows.Close()
	if err := parentAncestorRows.Err(); err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
	}

	for _, d := range descendants {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tree_closure WHERE descendant_id = ? AND ancestor_id NOT IN (SELECT descendant_id FROM tree_closure WHERE ancestor_id = ?)`, d.id, nodeID); err != nil {
			return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
		}
		for _, a := range newParentAncestors {
			newDepth := a.depth + d.depth + 1
			if _, err := tx.ExecContext(ctx, `INSERT INTO tree_closure (ancestor_id, descendant_id, depth) VALUES (?, ?, ?)`,
				a.id, d.id, newDepth); err != nil {
				return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
			}
		}
	}

	now := memtypes.NowMillis()
	newDepth := newParent.Depth + 1
	if _, err := tx.ExecContext(ctx, `UPDATE tree_nodes SET parent_id = ?, depth = ?, updated_at = ? WHERE id = ?`,
		newParentID, newDepth, now, nodeID); err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
	}

	// Depths of every other moved descendant shift by the same delta as
	// the node itself; recompute each from its captured relative depth.
	for _, d := range descendants {
		if d.id == nodeID {
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tree_nodes SET depth = ?, updated_at = ? WHERE id = ?`,
			newDepth+d.depth, now, d.id); err != nil {
			return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.MoveSubtree", err)
	}
	return s.GetNode(ctx, nodeID)
}
