package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MigrationState is one up-migration and whether it has been applied.
type MigrationState struct {
	Version string
	Applied bool
}

// ApplyMigrations runs every *.up.sql file in migrationsDir that is not yet
// recorded in schema_migrations, in lexical order, each in its own
// transaction. It returns the versions it applied.
func ApplyMigrations(ctx context.Context, db *sql.DB, migrationsDir string) ([]string, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return nil, err
	}

	files, err := listMigrationFiles(migrationsDir, ".up.sql")
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, file := range files {
		version := filepath.Base(file)
		if migrated, err := isMigrated(ctx, db, version); err != nil {
			return applied, err
		} else if migrated {
			continue
		}

		contents, err := os.ReadFile(file)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return applied, fmt.Errorf("begin migration tx %s: %w", version, err)
		}

		if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("execute migration %s: %w", version, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES($1)`, version); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("record migration %s: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("commit migration %s: %w", version, err)
		}
		applied = append(applied, version)
	}

	return applied, nil
}

// MigrationStatus lists the up-migrations found on disk with their state.
func MigrationStatus(ctx context.Context, db *sql.DB, migrationsDir string) ([]MigrationState, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return nil, err
	}
	files, err := listMigrationFiles(migrationsDir, ".up.sql")
	if err != nil {
		return nil, err
	}
	states := make([]MigrationState, 0, len(files))
	for _, file := range files {
		version := filepath.Base(file)
		migrated, err := isMigrated(ctx, db, version)
		if err != nil {
			return nil, err
		}
		states = append(states, MigrationState{Version: version, Applied: migrated})
	}
	return states, nil
}

// RollbackLast runs the down file for the most recently applied migration.
// It returns the rolled back version, or "" when nothing is applied.
func RollbackLast(ctx context.Context, db *sql.DB, migrationsDir string) (string, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return "", err
	}
	var version string
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read last migration: %w", err)
	}

	downFile := filepath.Join(migrationsDir, strings.TrimSuffix(version, ".up.sql")+".down.sql")
	contents, err := os.ReadFile(downFile)
	if err != nil {
		return "", fmt.Errorf("read down migration for %s: %w", version, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin rollback tx %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("execute down migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version=$1`, version); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("forget migration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit rollback %s: %w", version, err)
	}
	return version, nil
}

func listMigrationFiles(migrationsDir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, suffix) {
			files = append(files, filepath.Join(migrationsDir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return nil
}

func isMigrated(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return exists, nil
}
