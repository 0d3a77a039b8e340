// Package registry implements the local SQLite session index (SPEC_FULL.md
// §4.9): an operational bookkeeping table of sessions recorded on this
// machine, separate from the four jsonl/video sinks a session actually
// writes. Registry failures are logged and never abort a recording.
package registry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Registry wraps a single-connection WAL-mode SQLite database holding
// one row per session.
type Registry struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	name            TEXT PRIMARY KEY,
	dataset_root    TEXT NOT NULL,
	started_at      TEXT NOT NULL,
	finished_at     TEXT,
	status          TEXT NOT NULL,
	steps_written   INTEGER NOT NULL DEFAULT 0,
	dropped_events  INTEGER NOT NULL DEFAULT 0
);
`

// Open initializes (creating if absent) the registry database at path
// and applies the PRAGMA tuning a single local writer wants: WAL
// journaling for crash safety without fsync-per-write, NORMAL
// durability, in-memory temp tables, and a busy timeout so a concurrent
// reader (e.g. a status CLI) never hard-fails on lock contention.
func Open(path string) (*Registry, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("registry: create dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("registry: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA mmap_size = 268435456;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("registry: %s: %w", p, err)
		}
	}

	// A single writer process; more than one open connection just
	// invites SQLITE_BUSY against itself.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: apply schema: %w", err)
	}

	return &Registry{db: db}, nil
}

// StartSession inserts the row for a newly created session.
func (r *Registry) StartSession(name, datasetRoot string, startedAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (name, dataset_root, started_at, status) VALUES (?, ?, ?, 'recording')`,
		name, datasetRoot, startedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// UpdateProgress records the running step/drop counters. Called
// periodically by the Orchestrator's stats tick, not per-step.
func (r *Registry) UpdateProgress(name string, stepsWritten, droppedEvents uint64) error {
	_, err := r.db.Exec(
		`UPDATE sessions SET steps_written = ?, dropped_events = ? WHERE name = ?`,
		stepsWritten, droppedEvents, name,
	)
	return err
}

// FinishSession marks a session's terminal status ("finalized" or
// "failed") and its end time.
func (r *Registry) FinishSession(name, status string, finishedAt time.Time) error {
	_, err := r.db.Exec(
		`UPDATE sessions SET status = ?, finished_at = ? WHERE name = ?`,
		status, finishedAt.UTC().Format(time.RFC3339), name,
	)
	return err
}

// Session is one row of the registry, returned by List for the
// --status CLI surface.
type Session struct {
	Name          string
	DatasetRoot   string
	StartedAt     string
	FinishedAt    sql.NullString
	Status        string
	StepsWritten  uint64
	DroppedEvents uint64
}

// List returns every known session, most recently started first.
func (r *Registry) List() ([]Session, error) {
	rows, err := r.db.Query(
		`SELECT name, dataset_root, started_at, finished_at, status, steps_written, dropped_events
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.Name, &s.DatasetRoot, &s.StartedAt, &s.FinishedAt, &s.Status, &s.StepsWritten, &s.DroppedEvents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}
