package store

const schemaVersionV1 = 1

const schemaV1 = `
CREATE TABLE schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE analyses (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	test_name       TEXT,
	report_paths    TEXT NOT NULL,          -- JSON array of file paths
	repo_path       TEXT NOT NULL,
	status          TEXT NOT NULL,
	result          TEXT,
	total           INTEGER NOT NULL DEFAULT 0,
	failed          INTEGER NOT NULL DEFAULT 0,
	errored         INTEGER NOT NULL DEFAULT 0,
	skipped         INTEGER NOT NULL DEFAULT 0,
	build_system    TEXT,
	consistent      INTEGER NOT NULL DEFAULT 0,
	reproducible    INTEGER NOT NULL DEFAULT 0,
	root_cause      TEXT,
	confidence      REAL,
	recommendations TEXT,                   -- JSON array of strings
	document        TEXT,
	created_at      TEXT NOT NULL
);

CREATE INDEX idx_analyses_created_at ON analyses(created_at);
`
