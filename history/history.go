// Package history records every login attempt in a local SQLite database so
// failures can be reviewed after the error dialog is gone.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeRunning      Outcome = "running"
	OutcomeSuccess      Outcome = "success"
	OutcomeDisconnected Outcome = "disconnected"
	OutcomeFailed       Outcome = "failed"
	OutcomeCancelled    Outcome = "cancelled"
)

// Run is one recorded login attempt.
type Run struct {
	ID         string
	Command    string
	Domain     string
	Username   string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	Step       string
	Message    string
}

// Duration returns how long the run took, or 0 while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ErrRunNotFound is returned when finishing an unknown run.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	domain      TEXT NOT NULL,
	username    TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER,
	outcome     TEXT NOT NULL,
	step        TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// Store is the run history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("error creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating history schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin records the start of a run.
func (s *Store) Begin(ctx context.Context, command, domain, username string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Command:   command,
		Domain:    domain,
		Username:  username,
		StartedAt: s.now().UTC(),
		Outcome:   OutcomeRunning,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, domain, username, started_at, outcome) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Domain, run.Username, run.StartedAt.UnixMilli(), string(run.Outcome))
	if err != nil {
		return nil, fmt.Errorf("error recording run: %w", err)
	}
	return run, nil
}

// Finish records how a run ended and updates run in place.
func (s *Store) Finish(ctx context.Context, run *Run, outcome Outcome, step, message string) error {
	finished := s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, outcome = ?, step = ?, message = ? WHERE id = ?`,
		finished.UnixMilli(), string(outcome), step, message, run.ID)
	if err != nil {
		return fmt.Errorf("error finishing run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}

	run.FinishedAt = finished
	run.Outcome = outcome
	run.Step = step
	run.Message = message
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, domain, username, started_at, finished_at, outcome, step, message
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error reading history: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			run      Run
			started  int64
			finished sql.NullInt64
			outcome  string
		)
		if err := rows.Scan(&run.ID, &run.Command, &run.Domain, &run.Username,
			&started, &finished, &outcome, &run.Step, &run.Message); err != nil {
			return nil, fmt.Errorf("error reading history: %w", err)
		}
		run.StartedAt = time.UnixMilli(started).UTC()
		if finished.Valid {
			run.FinishedAt = time.UnixMilli(finished.Int64).UTC()
		}
		run.Outcome = Outcome(outcome)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
