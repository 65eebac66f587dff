package eventstore

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	timestamp  INTEGER NOT NULL,
	type       TEXT NOT NULL,
	session_id TEXT,
	intent     TEXT,
	summary    TEXT NOT NULL,
	entities   TEXT,
	links      TEXT,
	payload    TEXT,
	parent_id  TEXT REFERENCES events(id),
	tags       TEXT
);

CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
CREATE INDEX IF NOT EXISTS idx_events_parent ON events(parent_id);

CREATE TABLE IF NOT EXISTS event_tags (
	event_id TEXT NOT NULL,
	tag      TEXT NOT NULL,
	PRIMARY KEY (event_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_event_tags_tag ON event_tags(tag);
`
