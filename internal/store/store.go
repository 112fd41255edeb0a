// Package store is the SQLite persistence layer: projects, tasks,
// conversations, messages (with their context snapshots), project
// knowledge, voice transcripts and daily briefs.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	client_name TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	project_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'future',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	priority TEXT NOT NULL DEFAULT 'medium',
	deadline TEXT,
	is_recurring INTEGER NOT NULL DEFAULT 0,
	recurrence_rule TEXT NOT NULL DEFAULT '',
	last_reminded_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	completed_at TEXT
);

CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	conversation_date TEXT NOT NULL UNIQUE,
	started_at TEXT NOT NULL,
	last_activity TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	active_context TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

CREATE TABLE IF NOT EXISTS project_knowledge (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	source_type TEXT NOT NULL DEFAULT 'chat',
	source_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS voice_transcripts (
	id TEXT PRIMARY KEY,
	raw_content TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	source TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	processed INTEGER NOT NULL DEFAULT 0,
	processed_at TEXT,
	processing_summary TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS daily_briefs (
	id TEXT PRIMARY KEY,
	brief_date TEXT NOT NULL UNIQUE,
	content TEXT NOT NULL,
	tasks_included TEXT NOT NULL DEFAULT '[]',
	sent_at TEXT NOT NULL
);
`

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY on concurrent turns.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func newID() string {
	return uuid.NewString()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

func parseNullTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t := parseTime(v.String)
	return &t
}

func formatNullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
