// Package stats persists keyword lookup counts and document references in
// SQLite.
package stats

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS keyword_lookups (
	keyword     TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	count       INTEGER NOT NULL DEFAULT 0,
	last_seen   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (keyword, outcome)
);

CREATE TABLE IF NOT EXISTS keyword_refs (
	source  TEXT NOT NULL,
	keyword TEXT NOT NULL,
	valid   INTEGER NOT NULL DEFAULT 0,
	UNIQUE(source, keyword)
);

CREATE INDEX IF NOT EXISTS idx_keyword_refs_keyword ON keyword_refs(keyword);
`

// DB wraps a sql.DB with statistics operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("stats: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("stats: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("stats: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
