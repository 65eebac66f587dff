package treeindex

import (
	"database/sql"
	"encoding/json"

	"github.com/cliair-memcore/memcore/memtypes"
)

const rootCols = `SELECT id, tree_type, name, root_path, metadata, created_at, updated_at`
const nodeCols = `SELECT id, tree_type, tree_root_id, node_type, name, path, depth, parent_id, sort_order, chunk_id, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoot(r rowScanner) (memtypes.TreeRoot, error) {
	var (
		root     memtypes.TreeRoot
		treeType string
		metaJSON sql.NullString
	)
	if err := r.Scan(&root.ID, &treeType, &root.Name, &root.RootPath, &metaJSON, &root.CreatedAt, &root.UpdatedAt); err != nil {
		return memtypes.TreeRoot{}, err
	}
	root.Type = memtypes.TreeType(treeType)
	if metaJSON.Valid && metaJSON.String != "" {
		_ = json.Unmarshal([]byte(metaJSON.String), &root.Metadata)
	}
	return root, nil
}

func scanNode(r rowScanner) (memtypes.TreeNode, error) {
	var (
		node                      memtypes.TreeNode
		treeType                  string
		parentID, chunkID         sql.NullString
		metaJSON                  sql.NullString
	)
	if err := r.Scan(&node.ID, &treeType, &node.RootID, &node.NodeType, &node.Name, &node.Path, &node.Depth,
		&parentID, &node.SortOrder, &chunkID, &metaJSON, &node.CreatedAt, &node.UpdatedAt); err != nil {
		return memtypes.TreeNode{}, err
	}
	node.Type = memtypes.TreeType(treeType)
	node.ParentID = parentID.String
	node.ChunkID = chunkID.String
	if metaJSON.Valid && metaJSON.String != "" {
		_ = json.Unmarshal([]byte(metaJSON.String), &node.Metadata)
	}
	return node, nil
}
