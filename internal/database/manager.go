// Package database opens the SQLite file that backs the install history.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const memoryDSN = ":memory:"

// connectionPragmas run on every connection the pool opens, busy_timeout first.
var connectionPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"foreign_keys(ON)",
}

// Manager owns the history database handle and its schema.
type Manager struct {
	db   *sql.DB
	path string
}

// Open connects to path, which is a file path or ":memory:", and migrates
// the schema to SchemaVersion.
func Open(ctx context.Context, path string) (*Manager, error) {
	db, err := sql.Open("sqlite", connectionString(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open install history: %w", err)
	}

	// Every :memory: connection is a separate database
	if path == memoryDSN {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to install history %s: %w", path, err)
	}

	manager := &Manager{db: db, path: path}
	if err := manager.runMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return manager, nil
}

// connectionString appends the driver parameters to path. Write transactions
// take the database lock at BEGIN.
func connectionString(path string) string {
	params := url.Values{}
	for _, pragma := range connectionPragmas {
		params.Add("_pragma", pragma)
	}
	params.Set("_txlock", "immediate")

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + params.Encode()
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

// Path is the location the manager was opened with.
func (m *Manager) Path() string {
	return m.path
}

// Version reports the schema version stored in the database.
func (m *Manager) Version(ctx context.Context) (int, error) {
	var version int
	if err := m.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (m *Manager) Close() error {
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			return fmt.Errorf("failed to close install history: %w", err)
		}
	}
	return nil
}
