// Package auditlog records index build attempts to a local SQLite database
// for operator visibility. It is purely observational: nothing in the
// search or build path depends on reading it back.
package auditlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vectorbase/internal/store"
)

// Entry is one recorded build attempt.
type Entry struct {
	ID          int64             `json:"id"`
	LibraryID   string            `json:"library_id"`
	IndexerKind store.IndexerKind `json:"indexer_kind"`
	StartedAt   time.Time         `json:"started_at"`
	DurationMS  int64             `json:"duration_ms"`
	Success     bool              `json:"success"`
	Detail      string            `json:"detail,omitempty"`
}

// Log persists build attempts to a SQLite database at dbPath.
type Log struct {
	db *sql.DB
}

// Open creates (or reuses) the SQLite database at dbPath and ensures the
// audit table exists.
func Open(dbPath string) (*Log, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_sync=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("auditlog: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS build_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		library_id TEXT NOT NULL,
		indexer_kind TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_build_attempts_library_id ON build_attempts(library_id);
	CREATE INDEX IF NOT EXISTS idx_build_attempts_started_at ON build_attempts(started_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("auditlog: init schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record inserts one build attempt. Failures to write are swallowed by the
// caller (the index manager logs but never fails a build over this).
func (l *Log) Record(libraryID string, kind store.IndexerKind, startedAt time.Time, duration time.Duration, success bool, detail string) error {
	_, err := l.db.Exec(
		`INSERT INTO build_attempts (library_id, indexer_kind, started_at, duration_ms, success, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		libraryID, string(kind), startedAt, duration.Milliseconds(), success, detail,
	)
	return err
}

// ListForLibrary returns every recorded build attempt for a library, most
// recent first.
func (l *Log) ListForLibrary(libraryID string) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT id, library_id, indexer_kind, started_at, duration_ms, success, detail
		 FROM build_attempts WHERE library_id = ? ORDER BY started_at DESC`,
		libraryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		var success int
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.LibraryID, &kind, &e.StartedAt, &e.DurationMS, &success, &detail); err != nil {
			return nil, err
		}
		e.IndexerKind = store.IndexerKind(kind)
		e.Success = success != 0
		e.Detail = detail.String
		out = append(out, e)
	}
	return out, rows.Err()
}
