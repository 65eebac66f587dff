package profilestore

const schema = `
CREATE TABLE IF NOT EXISTS profile_items (
	key             TEXT PRIMARY KEY,
	value           TEXT NOT NULL,
	updated_at      INTEGER NOT NULL,
	confidence      REAL NOT NULL,
	source_event_id TEXT,
	explicit        INTEGER NOT NULL DEFAULT 0,
	expires_at      INTEGER
);

CREATE INDEX IF NOT EXISTS idx_profile_items_source_event ON profile_items(source_event_id);
`
