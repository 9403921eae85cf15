// Package history records install runs so their backups can be found later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a-gn/claude-setup/internal/database"
)

// Mode identifies which installer produced a run.
type Mode string

const (
	ModeProject Mode = "project"
	ModeUser    Mode = "user"
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrRunNotFound is returned by Get for unknown ids.
var ErrRunNotFound = errors.New("install run not found")

// Run is one recorded install.
type Run struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	ID          string
	Mode        Mode
	Destination string
	BackupDir   string
	Status      Status
	Error       string
	Languages   []string
}

// Recorder is what the installers need from the history store.
type Recorder interface {
	Start(ctx context.Context, mode Mode, destination string) (*Run, error)
	Finish(ctx context.Context, run *Run, runErr error) error
}

// Store persists runs in the install_runs table.
type Store struct {
	db      *sql.DB
	manager *database.Manager
	now     func() time.Time
}

// Open opens the history database at path, migrating it if needed. The
// returned Store owns the connection and must be closed.
func Open(ctx context.Context, path string, now func() time.Time) (*Store, error) {
	manager, err := database.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	store := NewStore(manager.DB(), now)
	store.manager = manager
	return store, nil
}

// NewStore creates a Store. A nil clock means time.Now.
func NewStore(db *sql.DB, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}
}

// Start inserts a running record and returns it.
func (s *Store) Start(ctx context.Context, mode Mode, destination string) (*Run, error) {
	run := &Run{
		ID:          uuid.NewString(),
		Mode:        mode,
		Destination: destination,
		Status:      StatusRunning,
		StartedAt:   s.now().UTC().Truncate(time.Second),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO install_runs (id, mode, destination, status, started_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, string(run.Mode), run.Destination, string(run.Status), run.StartedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to record install run: %w", err)
	}
	return run, nil
}

// Finish stores the outcome of run along with its languages and backup directory.
func (s *Store) Finish(ctx context.Context, run *Run, runErr error) error {
	run.FinishedAt = s.now().UTC().Truncate(time.Second)
	run.Status = StatusSucceeded
	run.Error = ""
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE install_runs
		SET languages = ?, backup_dir = ?, status = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		strings.Join(run.Languages, " "), run.BackupDir, string(run.Status), run.Error,
		run.FinishedAt.Unix(), run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish install run %s: %w", run.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish install run %s: %w", run.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

// Get loads one run by id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := selectRuns + " ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list install runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list install runs: %w", err)
	}
	return runs, nil
}

const selectRuns = `SELECT id, mode, destination, languages, backup_dir, status, error, started_at, finished_at
	FROM install_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run          Run
		mode, status string
		languages    string
		started      int64
		finished     sql.NullInt64
	)

	err := row.Scan(&run.ID, &mode, &run.Destination, &languages, &run.BackupDir,
		&status, &run.Error, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read install run: %w", err)
	}

	run.Mode = Mode(mode)
	run.Status = Status(status)
	run.Languages = strings.Fields(languages)
	run.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		run.FinishedAt = time.Unix(finished.Int64, 0).UTC()
	}
	return &run, nil
}

// Nop discards every record. It stands in when the history database cannot be opened.
type Nop struct{}

// Start returns an unsaved run.
func (Nop) Start(_ context.Context, mode Mode, destination string) (*Run, error) {
	return &Run{ID: uuid.NewString(), Mode: mode, Destination: destination, Status: StatusRunning}, nil
}

// Finish does nothing.
func (Nop) Finish(context.Context, *Run, error) error {
	return nil
}

// Close releases the database when the Store was created by Open.
func (s *Store) Close() error {
	if s.manager == nil {
		return nil
	}
	return s.manager.Close()
}
