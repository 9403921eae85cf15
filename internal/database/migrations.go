package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrNewerSchema means the history file was written by a newer release.
var ErrNewerSchema = errors.New("install history schema is newer than supported")

type migration struct {
	sql     string
	version int
}

var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE install_runs (
				id TEXT PRIMARY KEY,
				mode TEXT NOT NULL,
				destination TEXT NOT NULL,
				languages TEXT NOT NULL DEFAULT '',
				backup_dir TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				error TEXT NOT NULL DEFAULT '',
				started_at INTEGER NOT NULL,
				finished_at INTEGER
			);

			CREATE INDEX idx_install_runs_started ON install_runs(started_at);
			CREATE INDEX idx_install_runs_destination ON install_runs(destination);
		`,
	},
}

// SchemaVersion is the user_version after all migrations ran.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

func (m *Manager) runMigrations(ctx context.Context) error {
	currentVersion, err := m.Version(ctx)
	if err != nil {
		return err
	}
	if currentVersion > SchemaVersion() {
		return fmt.Errorf("%w: %s is at version %d, this build knows %d",
			ErrNewerSchema, m.path, currentVersion, SchemaVersion())
	}

	for _, migration := range migrations {
		if migration.version <= currentVersion {
			continue
		}
		if err := m.executeMigration(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) executeMigration(ctx context.Context, migration migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, migration.sql); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute migration %d: %w", migration.version, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", migration.version)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to update database version to %d: %w", migration.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.version, err)
	}
	return nil
}
