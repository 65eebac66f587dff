package memtypes

// TreeType enumerates the heterogeneous hierarchies the tree index can
// host, per spec.md §3.
type TreeType string

const (
	TreeCode  TreeType = "code"
	TreeDoc   TreeType = "doc"
	TreeEvent TreeType = "event"
	TreeTask  TreeType = "task"
)

// TreeRoot is the root of one named hierarchy, per spec.md §3.
type TreeRoot struct {
	ID        string         `json:"id"`
	Type      TreeType       `json:"tree_type"`
	Name      string         `json:"name"`
	RootPath  string         `json:"root_path"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt int64          `json:"created_at"`
	UpdatedAt int64          `json:"updated_at"`
}

// TreeNode is one node of a tree, per spec.md §3. Path is unique per
// TreeRootID. Depth is the parent's Depth plus one, or 0 for a node
// created without a parent; it is not computed from Path.
type TreeNode struct {
	ID        string         `json:"id"`
	Type      TreeType       `json:"tree_type"`
	RootID    string         `json:"tree_root_id"`
	NodeType  string         `json:"node_type"`
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	Depth     int            `json:"depth"`
	ParentID  string         `json:"parent_id,omitempty"`
	SortOrder int            `json:"sort_order"`
	ChunkID   string         `json:"chunk_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt int64          `json:"created_at"`
	UpdatedAt int64          `json:"updated_at"`
}

// NodeInput is the caller-supplied shape for TreeIndex.CreateNode.
type NodeInput struct {
	RootID   string
	NodeType string
	Name     string
	Path     string
	ParentID string
	SortOrder int
	ChunkID  string
	Metadata map[string]any
}

// NodeUpdate is a field-level merge for TreeIndex.UpdateNode.
type NodeUpdate struct {
	Name      *string
	SortOrder *int
	ChunkID   *string
	Metadata  *map[string]any
}

// ClosureEntry is one (ancestor, descendant, depth) row of the closure
// table, per spec.md §3. Self-rows have depth 0.
type ClosureEntry struct {
	AncestorID   string `json:"ancestor_id"`
	DescendantID string `json:"descendant_id"`
	Depth        int    `json:"depth"`
}

// TreeSearchResult is one result of TreeIndex.SearchInSubtree, per
// spec.md §4.9.
type TreeSearchResult struct {
	Node      TreeNode
	Score     float64
	MatchType MatchType
	Chunk     *SemanticChunk
	Ancestors []TreeNode
}

// SubtreeNode is an in-memory nested representation built by
// TreeIndex.GetSubtree.
type SubtreeNode struct {
	Node     TreeNode
	Children []*SubtreeNode
}
