package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// The unique index on participants(user_id) backs the one-group-per-user rule.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    name TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    state TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
    group_name TEXT NOT NULL,
    user_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    position INTEGER NOT NULL,
    joined_at INTEGER NOT NULL,
    PRIMARY KEY (group_name, user_id),
    FOREIGN KEY (group_name) REFERENCES groups(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS restrictions (
    group_name TEXT NOT NULL,
    giver_id TEXT NOT NULL,
    recipient_id TEXT NOT NULL,
    PRIMARY KEY (group_name, giver_id, recipient_id),
    FOREIGN KEY (group_name) REFERENCES groups(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS preferences (
    user_id TEXT PRIMARY KEY,
    wish TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_user_id ON participants(user_id);
CREATE INDEX IF NOT EXISTS idx_participants_group_name ON participants(group_name);
CREATE INDEX IF NOT EXISTS idx_restrictions_group_name ON restrictions(group_name);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
