package treeindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cliair-memcore/memcore/memtypes"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tree.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// buildCodeTree builds the §8 concrete scenario (3): a root with
// /src/index.ts, /src/utils/helpers.ts, /lib/core.ts.
func buildCodeTree(t *testing.T, s *Store) (root memtypes.TreeRoot, src, srcUtils, lib memtypes.TreeNode) {
	t.Helper()
	ctx := context.Background()

	root, err := s.CreateRoot(ctx, memtypes.TreeCode, "repo", "/", nil)
	if err != nil {
		t.Fatalf("CreateRoot: %v", err)
	}

	src, err = s.CreateNode(ctx, memtypes.NodeInput{RootID: root.ID, NodeType: "dir", Name: "src", Path: "/src"})
	if err != nil {
		t.Fatalf("CreateNode src: %v", err)
	}
	_, err = s.CreateNode(ctx, memtypes.NodeInput{RootID: root.ID, NodeType: "file", Name: "index.ts", Path: "/src/index.ts", ParentID: src.ID})
	if err != nil {
		t.Fatalf("CreateNode index.ts: %v", err)
	}
	srcUtils, err = s.CreateNode(ctx, memtypes.NodeInput{RootID: root.ID, NodeType: "dir", Name: "utils", Path: "/src/utils", ParentID: src.ID})
	if err != nil {
		t.Fatalf("CreateNode utils: %v", err)
	}
	_, err = s.CreateNode(ctx, memtypes.NodeInput{RootID: root.ID, NodeType: "file", Name: "helpers.ts", Path: "/src/utils/helpers.ts", ParentID: srcUtils.ID})
	if err != nil {
		t.Fatalf("CreateNode helpers.ts: %v", err)
	}
	lib, err = s.CreateNode(ctx, memtypes.NodeInput{RootID: root.ID, NodeType: "dir", Name: "lib", Path: "/lib"})
	if err != nil {
		t.Fatalf("CreateNode lib: %v", err)
	}
	_, err = s.CreateNode(ctx, memtypes.NodeInput{RootID: root.ID, NodeType: "file", Name: "core.ts", Path: "/lib/core.ts", ParentID: lib.ID})
	if err != nil {
		t.Fatalf("CreateNode core.ts: %v", err)
	}
	return root, src, srcUtils, lib
}

func TestCodeTreeScenario(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	_, _, srcUtils, _ := buildCodeTree(t, s)

	ancestors, err := s.GetAncestors(ctx, srcUtils.ID)
	if err != nil {
		t.Fatalf("GetAncestors: %v", err)
	}
	if len(ancestors) != 1 {
		t.Fatalf("expected 1 ancestor (/src) for /src/utils, got %d: %+v", len(ancestors), ancestors)
	}
	if ancestors[0].Path != "/src" {
		t.Fatalf("expected ancestor /src, got %s", ancestors[0].Path)
	}

	descendants, err := s.GetDescendants(ctx, srcUtils.ID, 0)
	if err != nil {
		t.Fatalf("GetDescendants: %v", err)
	}
	if len(descendants) != 1 || descendants[0].Path != "/src/utils/helpers.ts" {
		t.Fatalf("expected 1 descendant file helpers.ts, got %+v", descendants)
	}
}

func TestSelfClosureAndPerAncestorRow(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	_, _, srcUtils, _ := buildCodeTree(t, s)

	var selfDepth int
	if err := s.db.QueryRowContext(ctx, `SELECT depth FROM tree_closure WHERE ancestor_id = ? AND descendant_id = ?`, srcUtils.ID, srcUtils.ID).Scan(&selfDepth); err != nil {
		t.Fatalf("expected self-closure row: %v", err)
	}
	if selfDepth != 0 {
		t.Fatalf("expected self-closure depth 0, got %d", selfDepth)
	}

	ancestors, err := s.GetAncestors(ctx, srcUtils.ID)
	if err != nil {
		t.Fatalf("GetAncestors: %v", err)
	}
	for _, a := range ancestors {
		var depth int
		if err := s.db.QueryRowContext(ctx, `SELECT depth FROM tree_closure WHERE ancestor_id = ? AND descendant_id = ?`, a.ID, srcUtils.ID).Scan(&depth); err != nil {
			t.Fatalf("expected closure row for ancestor %s: %v", a.ID, err)
		}
		if depth != srcUtils.Depth-a.Depth {
			t.Fatalf("expected depth %d, got %d", srcUtils.Depth-a.Depth, depth)
		}
	}
}

func TestDeleteNodeRemovesAllDescendantClosureRows(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	root, src, _, _ := buildCodeTree(t, s)

	if err := s.DeleteNode(ctx, src.ID); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tree_closure c
		JOIN tree_nodes n ON n.path LIKE '/src%'
		WHERE c.descendant_id = n.id
	`).Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no closure rows referencing deleted subtree, got %d", count)
	}

	if _, err := s.GetNodeByPath(ctx, root.ID, "/src/utils/helpers.ts"); err == nil {
		t.Fatalf("expected helpers.ts node to be gone")
	}
}

func TestDuplicatePathConflict(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	root, _, _, _ := buildCodeTree(t, s)

	_, err := s.CreateNode(ctx, memtypes.NodeInput{RootID: root.ID, NodeType: "file", Name: "index.ts", Path: "/src/index.ts"})
	if !memtypes.Is(err, memtypes.KindConflict) {
		t.Fatalf("expected KindConflict for duplicate path, got %v", err)
	}
}

func TestMoveSubtreeUpdatesClosure(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	_, _, srcUtils, lib := buildCodeTree(t, s)

	moved, err := s.MoveSubtree(ctx, srcUtils.ID, lib.ID)
	if err != nil {
		t.Fatalf("MoveSubtree: %v", err)
	}
	if moved.ParentID != lib.ID {
		t.Fatalf("expected new parent %s, got %s", lib.ID, moved.ParentID)
	}

	ancestors, err := s.GetAncestors(ctx, srcUtils.ID)
	if err != nil {
		t.Fatalf("GetAncestors: %v", err)
	}
	foundLib := false
	for _, a := range ancestors {
		if a.ID == lib.ID {
			foundLib = true
		}
		if a.Path == "/src" {
			t.Fatalf("expected /src no longer an ancestor after move")
		}
	}
	if !foundLib {
		t.Fatalf("expected lib to be an ancestor after move")
	}

	descendants, err := s.GetDescendants(ctx, srcUtils.ID, 0)
	if err != nil {
		t.Fatalf("GetDescendants: %v", err)
	}
	if len(descendants) != 1 || descendants[0].Path != "/src/utils/helpers.ts" {
		t.Fatalf("expected moved subtree to retain its own descendant, got %+v", descendants)
	}
}

func TestGetSubtreeNestsDirectChildren(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	root, src, _, _ := buildCodeTree(t, s)
	_ = root

	subtree, err := s.GetSubtree(ctx, src.ID)
	if err != nil {
		t.Fatalf("GetSubtree: %v", err)
	}
	if subtree.Node.Path != "/src" {
		t.Fatalf("expected root of subtree to be /src, got %s", subtree.Node.Path)
	}
	if len(subtree.Children) != 2 {
		t.Fatalf("expected 2 direct children of /src, got %d", len(subtree.Children))
	}
}
