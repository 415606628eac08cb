package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create archived messages",
		SQL: `
			CREATE TABLE archived_messages (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				message_id   TEXT NOT NULL,
				chat_id      TEXT NOT NULL,
				author       TEXT NOT NULL DEFAULT '',
				sender_name  TEXT NOT NULL DEFAULT '',
				kind         TEXT NOT NULL,
				body         TEXT NOT NULL DEFAULT '',
				filename     TEXT NOT NULL DEFAULT '',
				size         INTEGER NOT NULL DEFAULT 0,
				message_ts   INTEGER NOT NULL DEFAULT 0,
				archived_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_archive_message ON archived_messages (message_id);
			CREATE INDEX idx_archive_chat ON archived_messages (chat_id, id);
		`,
	},
}
