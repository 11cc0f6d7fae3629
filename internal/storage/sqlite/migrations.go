package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    stage TEXT NOT NULL,
    cursor INTEGER NOT NULL DEFAULT 0,
    ratio REAL NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    session_id TEXT NOT NULL,
    id INTEGER NOT NULL,
    date INTEGER NOT NULL,
    date_valid INTEGER NOT NULL,
    description TEXT NOT NULL,
    amount REAL NOT NULL,
    is_credit INTEGER NOT NULL,
    raw_amount REAL NOT NULL,
    PRIMARY KEY (session_id, id),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS decisions (
    session_id TEXT NOT NULL,
    transaction_id INTEGER NOT NULL,
    category TEXT NOT NULL,
    PRIMARY KEY (session_id, transaction_id),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_transactions_session_id ON transactions(session_id);
CREATE INDEX IF NOT EXISTS idx_decisions_session_id ON decisions(session_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
