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

CREATE TABLE IF NOT EXISTS notifications (
	id            TEXT PRIMARY KEY,
	position      INTEGER NOT NULL,
	kind          TEXT NOT NULL,
	actor         TEXT NOT NULL,
	actor_display TEXT NOT NULL DEFAULT '',
	target_kind   TEXT NOT NULL DEFAULT '',
	target_id     TEXT NOT NULL DEFAULT '',
	message       TEXT NOT NULL DEFAULT '',
	read          INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	username     TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	bio          TEXT NOT NULL DEFAULT '',
	followers    INTEGER NOT NULL DEFAULT 0,
	following    INTEGER NOT NULL DEFAULT 0,
	is_following INTEGER,
	fetched_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_position ON notifications(position);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
