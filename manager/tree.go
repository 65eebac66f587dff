package manager

import (
	"context"

	"github.com/cliair-memcore/memcore/internal/treeindex"
	"github.com/cliair-memcore/memcore/memtypes"
)

// CreateRoot delegates to the tree index, per spec.md §6.
func (m *Manager) CreateRoot(ctx context.Context, treeType memtypes.TreeType, name, rootPath string, metadata map[string]any) (memtypes.TreeRoot, error) {
	return m.tree.CreateRoot(ctx, treeType, name, rootPath, metadata)
}

// GetRoot delegates to the tree index.
func (m *Manager) GetRoot(ctx context.Context, id string) (memtypes.TreeRoot, error) {
	return m.tree.GetRoot(ctx, id)
}

// CreateNode delegates to the tree index, per spec.md §6.
func (m *Manager) CreateNode(ctx context.Context, input memtypes.NodeInput) (memtypes.TreeNode, error) {
	return m.tree.CreateNode(ctx, input)
}

// CreateNodeBatch delegates to the tree index.
func (m *Manager) CreateNodeBatch(ctx context.Context, inputs []memtypes.NodeInput) ([]memtypes.TreeNode, error) {
	return m.tree.CreateNodeBatch(ctx, inputs)
}

// GetNode delegates to the tree index.
func (m *Manager) GetNode(ctx context.Context, id string) (memtypes.TreeNode, error) {
	return m.tree.GetNode(ctx, id)
}

// GetNodeByPath delegates to the tree index.
func (m *Manager) GetNodeByPath(ctx context.Context, rootID, path string) (memtypes.TreeNode, error) {
	return m.tree.GetNodeByPath(ctx, rootID, path)
}

// UpdateNode delegates to the tree index.
func (m *Manager) UpdateNode(ctx context.Context, id string, update memtypes.NodeUpdate) (memtypes.TreeNode, error) {
	return m.tree.UpdateNode(ctx, id, update)
}

// DeleteNode delegates to the tree index.
func (m *Manager) DeleteNode(ctx context.Context, id string) error {
	return m.tree.DeleteNode(ctx, id)
}

// GetChildren delegates to the tree index.
func (m *Manager) GetChildren(ctx context.Context, nodeID string) ([]memtypes.TreeNode, error) {
	return m.tree.GetChildren(ctx, nodeID)
}

// GetAncestors delegates to the tree index.
func (m *Manager) GetAncestors(ctx context.Context, nodeID string) ([]memtypes.TreeNode, error) {
	return m.tree.GetAncestors(ctx, nodeID)
}

// GetDescendants delegates to the tree index.
func (m *Manager) GetDescendants(ctx context.Context, nodeID string, maxDepth int) ([]memtypes.TreeNode, error) {
	return m.tree.GetDescendants(ctx, nodeID, maxDepth)
}

// GetSubtree delegates to the tree index.
func (m *Manager) GetSubtree(ctx context.Context, nodeID string) (*memtypes.SubtreeNode, error) {
	return m.tree.GetSubtree(ctx, nodeID)
}

// MoveSubtree delegates to the tree index.
func (m *Manager) MoveSubtree(ctx context.Context, nodeID, newParentID string) (memtypes.TreeNode, error) {
	return m.tree.MoveSubtree(ctx, nodeID, newParentID)
}

// LinkChunk delegates to the tree index.
func (m *Manager) LinkChunk(ctx context.Context, nodeID, chunkID string) error {
	return m.tree.LinkChunk(ctx, nodeID, chunkID)
}

// UnlinkChunk delegates to the tree index.
func (m *Manager) UnlinkChunk(ctx context.Context, nodeID string) error {
	return m.tree.UnlinkChunk(ctx, nodeID)
}

// SearchInSubtree delegates to the tree index.
func (m *Manager) SearchInSubtree(ctx context.Context, query, rootNodeID string, opts treeindex.TreeSearchOptions) ([]memtypes.TreeSearchResult, error) {
	return m.tree.SearchInSubtree(ctx, query, rootNodeID, opts)
}

// SearchByName delegates to the tree index.
func (m *Manager) SearchByName(ctx context.Context, rootID, name string, opts treeindex.TreeSearchOptions) ([]memtypes.TreeSearchResult, error) {
	return m.tree.SearchByName(ctx, rootID, name, opts)
}

// SearchByPath delegates to the tree index.
func (m *Manager) SearchByPath(ctx context.Context, rootID, path string, opts treeindex.TreeSearchOptions) ([]memtypes.TreeSearchResult, error) {
	return m.tree.SearchByPath(ctx, rootID, path, opts)
}
