package taskstore

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	goal        TEXT NOT NULL,
	status      TEXT NOT NULL,
	constraints TEXT,
	plan        TEXT,
	done        TEXT,
	blocked     TEXT,
	next_action TEXT,
	updated_at  INTEGER NOT NULL,
	version     INTEGER NOT NULL,
	session_id  TEXT,
	metadata    TEXT
);

CREATE INDEX IF NOT EXISTS idx_tasks_session ON tasks(session_id);
CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks(updated_at);

CREATE TABLE IF NOT EXISTS task_snapshots (
	task_id    TEXT NOT NULL,
	version    INTEGER NOT NULL,
	state      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (task_id, version)
);
`
