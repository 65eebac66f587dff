// Package treeindex implements spec.md §4.9: a hybrid closure-table +
// path-enumeration tree index over heterogeneous hierarchies (code/doc/
// event/task), linking into the semantic chunk index. The closure table is
// the single source of truth for ancestor/descendant relationships; nodes
// carry a human-readable path for lookup, but it is never consulted to
// derive ancestry (spec.md §9 "tree is pure-id ... closure table is single
// source of truth"). Grounded on the teacher's repository-tree traversal
// in internal/memory (file/symbol hierarchy walking), generalized to a
// proper closure-table implementation per spec.md §3/§4.9.
package treeindex

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cliair-memcore/memcore/internal/sqlstore"
	"github.com/cliair-memcore/memcore/memtypes"
)

// ChunkSearcher is the narrow slice of semanticstore.Store that
// SearchInSubtree needs, kept as an interface here so treeindex doesn't
// import semanticstore directly.
type ChunkSearcher interface {
	Search(ctx context.Context, query string, opts memtypes.ChunkSearchOptions) ([]memtypes.ScoredChunk, error)
	Get(ctx context.Context, id string) (memtypes.SemanticChunk, error)
}

// Store is the SQLite-backed tree index.
type Store struct {
	db       *sql.DB
	searcher ChunkSearcher
}

// Open creates/opens the tree index at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlstore.Open(ctx, path, schema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetChunkSearcher registers the semantic store SearchInSubtree delegates
// to, per spec.md §4.9.
func (s *Store) SetChunkSearcher(searcher ChunkSearcher) {
	s.searcher = searcher
}

// CreateRoot creates a new named hierarchy.
func (s *Store) CreateRoot(ctx context.Context, treeType memtypes.TreeType, name, rootPath string, metadata map[string]any) (memtypes.TreeRoot, error) {
	if name == "" {
		return memtypes.TreeRoot{}, memtypes.Newf(memtypes.KindInvalid, "treeindex.CreateRoot", "name must not be empty")
	}
	now := memtypes.NowMillis()
	root := memtypes.TreeRoot{
		ID:        memtypes.NewID(),
		Type:      treeType,
		Name:      name,
		RootPath:  rootPath,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	metaJSON, err := marshalOrNil(root.Metadata, len(root.Metadata) == 0)
	if err != nil {
		return memtypes.TreeRoot{}, memtypes.Wrap(memtypes.KindInvalid, "treeindex.CreateRoot", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tree_roots (id, tree_type, name, root_path, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, root.ID, string(root.Type), root.Name, root.RootPath, metaJSON, root.CreatedAt, root.UpdatedAt)
	if err != nil {
		return memtypes.TreeRoot{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateRoot", err)
	}
	return root, nil
}

// GetRoot retrieves a tree root by id.
func (s *Store) GetRoot(ctx context.Context, id string) (memtypes.TreeRoot, error) {
	row := s.db.QueryRowContext(ctx, rootCols+` FROM tree_roots WHERE id = ?`, id)
	root, err := scanRoot(row)
	if err == sql.ErrNoRows {
		return memtypes.TreeRoot{}, memtypes.Newf(memtypes.KindNotFound, "treeindex.GetRoot", "root %s not found", id)
	}
	if err != nil {
		return memtypes.TreeRoot{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.GetRoot", err)
	}
	return root, nil
}

// CreateNode inserts a node plus its closure rows in one transaction, per
// spec.md §4.9: one row for the node, a self-closure (new_id,new_id,0),
// and for every ancestor A of the parent (found via the closure table,
// including the parent itself via its own self-row) a row
// (A, new_id, depth(A→parent)+1).
func (s *Store) CreateNode(ctx context.Context, input memtypes.NodeInput) (memtypes.TreeNode, error) {
	nodes, err := s.CreateNodeBatch(ctx, []memtypes.NodeInput{input})
	if err != nil {
		return memtypes.TreeNode{}, err
	}
	return nodes[0], nil
}

// CreateNodeBatch inserts multiple nodes in one transaction. Inputs may
// reference parents created earlier in the same batch.
func (s *Store) CreateNodeBatch(ctx context.Context, inputs []memtypes.NodeInput) ([]memtypes.TreeNode, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNodeBatch", err)
	}
	defer tx.Rollback()

	out := make([]memtypes.TreeNode, 0, len(inputs))
	for _, input := range inputs {
		node, err := createNodeInTx(ctx, tx, input)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}

	if err := tx.Commit(); err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNodeBatch", err)
	}
	return out, nil
}

func createNodeInTx(ctx context.Context, tx *sql.Tx, input memtypes.NodeInput) (memtypes.TreeNode, error) {
	if input.RootID == "" {
		return memtypes.TreeNode{}, memtypes.Newf(memtypes.KindInvalid, "treeindex.CreateNode", "root_id must not be empty")
	}
	if input.Path == "" || input.Path[0] != '/' {
		return memtypes.TreeNode{}, memtypes.Newf(memtypes.KindInvalid, "treeindex.CreateNode", "path must have a leading slash")
	}
	if len(input.Path) > 1 && input.Path[len(input.Path)-1] == '/' {
		return memtypes.TreeNode{}, memtypes.Newf(memtypes.KindInvalid, "treeindex.CreateNode", "path must not have a trailing slash")
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tree_nodes WHERE tree_root_id = ? AND path = ?`, input.RootID, input.Path).Scan(&existing); err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNode", err)
	}
	if existing > 0 {
		return memtypes.TreeNode{}, memtypes.ConflictPath("treeindex.CreateNode", input.Path, input.RootID)
	}

	depth := 0
	var rootType memtypes.TreeType
	if input.ParentID != "" {
		parentRow := tx.QueryRowContext(ctx, nodeCols+` FROM tree_nodes WHERE id = ?`, input.ParentID)
		parent, err := scanNode(parentRow)
		if err == sql.ErrNoRows {
			return memtypes.TreeNode{}, memtypes.Newf(memtypes.KindNotFound, "treeindex.CreateNode", "parent %s not found", input.ParentID)
		}
		if err != nil {
			return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNode", err)
		}
		depth = parent.Depth + 1
		rootType = parent.Type
	} else {
		root, err := getRootInTx(ctx, tx, input.RootID)
		if err != nil {
			return memtypes.TreeNode{}, err
		}
		rootType = root.Type
	}

	now := memtypes.NowMillis()
	node := memtypes.TreeNode{
		ID:        memtypes.NewID(),
		Type:      rootType,
		RootID:    input.RootID,
		NodeType:  input.NodeType,
		Name:      input.Name,
		Path:      input.Path,
		Depth:     depth,
		ParentID:  input.ParentID,
		SortOrder: input.SortOrder,
		ChunkID:   input.ChunkID,
		Metadata:  input.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	metaJSON, err := marshalOrNil(node.Metadata, len(node.Metadata) == 0)
	if err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindInvalid, "treeindex.CreateNode", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tree_nodes (id, tree_type, tree_root_id, node_type, name, path, depth, parent_id, sort_order, chunk_id, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, node.ID, string(node.Type), node.RootID, node.NodeType, node.Name, node.Path, node.Depth,
		sqlstore.NullIfEmpty(node.ParentID), node.SortOrder, sqlstore.NullIfEmpty(node.ChunkID), metaJSON, node.CreatedAt, node.UpdatedAt)
	if err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNode", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO tree_closure (ancestor_id, descendant_id, depth) VALUES (?, ?, 0)`, node.ID, node.ID); err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNode", err)
	}

	if input.ParentID != "" {
		rows, err := tx.QueryContext(ctx, `SELECT ancestor_id, depth FROM tree_closure WHERE descendant_id = ?`, input.ParentID)
		if err != nil {
			return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNode", err)
		}
		type ancestorRow struct {
			id    string
			depth int
		}
		var ancestors []ancestorRow
		for rows.Next() {
			var a ancestorRow
			if err := rows.Scan(&a.id, &a.depth); err != nil {
				rows.Close()
				return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNode", err)
			}
			ancestors = append(ancestors, a)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNode", err)
		}

		for _, a := range ancestors {
			if _, err := tx.ExecContext(ctx, `INSERT INTO tree_closure (ancestor_id, descendant_id, depth) VALUES (?, ?, ?)`,
				a.id, node.ID, a.depth+1); err != nil {
				return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNode", err)
			}
		}
	}

	return node, nil
}

func getRootInTx(ctx context.Context, tx *sql.Tx, id string) (memtypes.TreeRoot, error) {
	row := tx.QueryRowContext(ctx, rootCols+` FROM tree_roots WHERE id = ?`, id)
	root, err := scanRoot(row)
	if err == sql.ErrNoRows {
		return memtypes.TreeRoot{}, memtypes.Newf(memtypes.KindNotFound, "treeindex.CreateNode", "root %s not found", id)
	}
	if err != nil {
		return memtypes.TreeRoot{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.CreateNode", err)
	}
	return root, nil
}

// GetNode retrieves a node by id.
func (s *Store) GetNode(ctx context.Context, id string) (memtypes.TreeNode, error) {
	row := s.db.QueryRowContext(ctx, nodeCols+` FROM tree_nodes WHERE id = ?`, id)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return memtypes.TreeNode{}, memtypes.Newf(memtypes.KindNotFound, "treeindex.GetNode", "node %s not found", id)
	}
	if err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.GetNode", err)
	}
	return node, nil
}

// GetNodeByPath retrieves a node by (rootID, path).
func (s *Store) GetNodeByPath(ctx context.Context, rootID, path string) (memtypes.TreeNode, error) {
	row := s.db.QueryRowContext(ctx, nodeCols+` FROM tree_nodes WHERE tree_root_id = ? AND path = ?`, rootID, path)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return memtypes.TreeNode{}, memtypes.Newf(memtypes.KindNotFound, "treeindex.GetNodeByPath", "path %s not found in root %s", path, rootID)
	}
	if err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.GetNodeByPath", err)
	}
	return node, nil
}

// UpdateNode merges non-nil fields into a node. Path and parent are never
// mutated here; reparenting goes through MoveSubtree so closure rows stay
// consistent.
func (s *Store) UpdateNode(ctx context.Context, id string, update memtypes.NodeUpdate) (memtypes.TreeNode, error) {
	current, err := s.GetNode(ctx, id)
	if err != nil {
		return memtypes.TreeNode{}, err
	}
	if update.Name != nil {
		current.Name = *update.Name
	}
	if update.SortOrder != nil {
		current.SortOrder = *update.SortOrder
	}
	if update.ChunkID != nil {
		current.ChunkID = *update.ChunkID
	}
	if update.Metadata != nil {
		current.Metadata = *update.Metadata
	}
	current.UpdatedAt = memtypes.NowMillis()

	metaJSON, err := marshalOrNil(current.Metadata, len(current.Metadata) == 0)
	if err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindInvalid, "treeindex.UpdateNode", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE tree_nodes SET name=?, sort_order=?, chunk_id=?, metadata=?, updated_at=? WHERE id=?
	`, current.Name, current.SortOrder, sqlstore.NullIfEmpty(current.ChunkID), metaJSON, current.UpdatedAt, id)
	if err != nil {
		return memtypes.TreeNode{}, memtypes.Wrap(memtypes.KindDatabase, "treeindex.UpdateNode", err)
	}
	return current, nil
}

// DeleteNode removes a node and its entire subtree, per spec.md §4.9 and
// the §8 invariant "after delete_node(N) no closure row references any
// descendant of N": every closure row naming a descendant of N is removed
// first, then the node rows themselves.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "treeindex.DeleteNode", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT descendant_id FROM tree_closure WHERE ancestor_id = ?`, id)
	if err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "treeindex.DeleteNode", err)
	}
	var descendantIDs []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return memtypes.Wrap(memtypes.KindDatabase, "treeindex.DeleteNode", err)
		}
		descendantIDs = append(descendantIDs, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "treeindex.DeleteNode", err)
	}

	for _, d := range descendantIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tree_closure WHERE descendant_id = ?`, d); err != nil {
			return memtypes.Wrap(memtypes.KindDatabase, "treeindex.DeleteNode", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tree_nodes WHERE id = ?`, d); err != nil {
			return memtypes.Wrap(memtypes.KindDatabase, "treeindex.DeleteNode", err)
		}
	}

	return memtypes.Wrap(memtypes.KindDatabase, "treeindex.DeleteNode", tx.Commit())
}

func marshalOrNil(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
