package summarystore

const schema = `
CREATE TABLE IF NOT EXISTS summaries (
	id                TEXT PRIMARY KEY,
	timestamp         INTEGER NOT NULL,
	session_id        TEXT NOT NULL,
	short             TEXT NOT NULL,
	bullets           TEXT,
	decisions         TEXT,
	todos             TEXT,
	covered_event_ids TEXT,
	token_count       INTEGER
);

CREATE INDEX IF NOT EXISTS idx_summaries_session ON summaries(session_id);
CREATE INDEX IF NOT EXISTS idx_summaries_timestamp ON summaries(timestamp);
`
