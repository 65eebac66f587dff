package treeindex

import (
	"context"

	"github.com/cliair-memcore/memcore/memtypes"
)

// LinkChunk associates nodeID with a semantic chunk.
func (s *Store) LinkChunk(ctx context.Context, nodeID, chunkID string) error {
	chunkIDPtr := chunkID
	_, err := s.UpdateNode(ctx, nodeID, memtypes.NodeUpdate{ChunkID: &chunkIDPtr})
	return err
}

// UnlinkChunk removes nodeID's chunk association.
func (s *Store) UnlinkChunk(ctx context.Context, nodeID string) error {
	empty := ""
	_, err := s.UpdateNode(ctx, nodeID, memtypes.NodeUpdate{ChunkID: &empty})
	return err
}

// GetChunksInSubtree returns the distinct non-null chunk ids linked anywhere
// in nodeID's subtree (including nodeID itself), per spec.md §4.9.
func (s *Store) GetChunksInSubtree(ctx context.Context, nodeID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT n.chunk_id
		FROM tree_nodes n
		JOIN tree_closure c ON c.descendant_id = n.id
		WHERE c.ancestor_id = ? AND n.chunk_id IS NOT NULL
	`, nodeID)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "treeindex.GetChunksInSubtree", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, memtypes.Wrap(memtypes.KindDatabase, "treeindex.GetChunksInSubtree", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GetNodesByChunkID returns every node linked to chunkID (normally one,
// but link_chunk allows many nodes to share a chunk).
func (s *Store) GetNodesByChunkID(ctx context.Context, chunkID string) ([]memtypes.TreeNode, error) {
	rows, err := s.db.QueryContext(ctx, nodeCols+` FROM tree_nodes WHERE chunk_id = ?`, chunkID)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "treeindex.GetNodesByChunkID", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}
