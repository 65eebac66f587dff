package semanticstore

// schema is applied once per opened handle. The chunks_fts virtual table
// mirrors (text, tags) via triggers, following the teacher's embedded-schema
// idiom (operational.go/learning.go //go:embed schema_*.sql) generalized to
// an inline constant since this package owns a single small schema rather
// than splitting it into its own file tree. fts5 is the MycelicMemory-style
// content-table mirror (other_examples: MycelicMemory internal/database
// schema.go "memories_fts").
const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	rowid           INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	text            TEXT NOT NULL,
	tags            TEXT,
	timestamp       INTEGER NOT NULL,
	session_id      TEXT,
	source_event_id TEXT,
	source_type     TEXT,
	metadata        TEXT,
	embedding       BLOB
);

CREATE INDEX IF NOT EXISTS idx_chunks_session ON chunks(session_id);
CREATE INDEX IF NOT EXISTS idx_chunks_timestamp ON chunks(timestamp);
CREATE INDEX IF NOT EXISTS idx_chunks_source_event ON chunks(source_event_id);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	text,
	tags,
	content='chunks',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
	INSERT INTO chunks_fts(rowid, text, tags) VALUES (new.rowid, new.text, new.tags);
END;

CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, text, tags) VALUES ('delete', old.rowid, old.text, old.tags);
END;

CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, text, tags) VALUES ('delete', old.rowid, old.text, old.tags);
	INSERT INTO chunks_fts(rowid, text, tags) VALUES (new.rowid, new.text, new.tags);
END;

CREATE TABLE IF NOT EXISTS embedding_cache (
	text_hash  TEXT NOT NULL,
	provider   TEXT NOT NULL,
	model      TEXT NOT NULL,
	vector     BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (text_hash, provider, model)
);
`
