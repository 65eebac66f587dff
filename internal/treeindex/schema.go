package treeindex

const schema = `
CREATE TABLE IF NOT EXISTS tree_roots (
	id         TEXT PRIMARY KEY,
	tree_type  TEXT NOT NULL,
	name       TEXT NOT NULL,
	root_path  TEXT NOT NULL,
	metadata   TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tree_nodes (
	id            TEXT PRIMARY KEY,
	tree_type     TEXT NOT NULL,
	tree_root_id  TEXT NOT NULL,
	node_type     TEXT NOT NULL,
	name          TEXT NOT NULL,
	path          TEXT NOT NULL,
	depth         INTEGER NOT NULL,
	parent_id     TEXT,
	sort_order    INTEGER NOT NULL DEFAULT 0,
	chunk_id      TEXT,
	metadata      TEXT,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	UNIQUE (tree_root_id, path)
);

CREATE INDEX IF NOT EXISTS idx_tree_nodes_root ON tree_nodes(tree_root_id);
CREATE INDEX IF NOT EXISTS idx_tree_nodes_parent ON tree_nodes(parent_id);
CREATE INDEX IF NOT EXISTS idx_tree_nodes_chunk ON tree_nodes(chunk_id);

CREATE TABLE IF NOT EXISTS tree_closure (
	ancestor_id   TEXT NOT NULL,
	descendant_id TEXT NOT NULL,
	depth         INTEGER NOT NULL,
	PRIMARY KEY (ancestor_id, descendant_id)
);

CREATE INDEX IF NOT EXISTS idx_tree_closure_descendant ON tree_closure(descendant_id);
CREATE INDEX IF NOT EXISTS idx_tree_closure_ancestor ON tree_closure(ancestor_id);
`
