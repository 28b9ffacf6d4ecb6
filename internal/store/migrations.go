package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS mirror_entries (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL DEFAULT '[]',
	item_count INTEGER NOT NULL DEFAULT 0 CHECK(item_count >= 0),
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_mirror_entries_updated_at ON mirror_entries(updated_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
