package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestMigrationsRoundTripPostgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("JOBTRACK_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("JOBTRACK_TEST_DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}

	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	migrationsDir := filepath.Join("..", "..", "db", "migrations")

	applied, err := ApplyMigrations(ctx, db, migrationsDir)
	if err != nil {
		t.Fatalf("apply up migrations (pass 1): %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("expected migrations to be applied on an empty schema")
	}

	again, err := ApplyMigrations(ctx, db, migrationsDir)
	if err != nil {
		t.Fatalf("re-apply up migrations: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no pending migrations, got %v", again)
	}

	states, err := MigrationStatus(ctx, db, migrationsDir)
	if err != nil {
		t.Fatalf("migration status: %v", err)
	}
	for _, state := range states {
		if !state.Applied {
			t.Fatalf("expected %s to be applied", state.Version)
		}
	}

	if err := applyDownMigrations(ctx, db, migrationsDir); err != nil {
		t.Fatalf("apply down migrations: %v", err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		t.Fatalf("clear schema_migrations: %v", err)
	}

	if _, err := ApplyMigrations(ctx, db, migrationsDir); err != nil {
		t.Fatalf("apply up migrations (pass 2): %v", err)
	}

	version, err := RollbackLast(ctx, db, migrationsDir)
	if err != nil {
		t.Fatalf("rollback last: %v", err)
	}
	if !strings.HasPrefix(version, "0002_") {
		t.Fatalf("expected newest migration rolled back, got %q", version)
	}
}

func resetPublicSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	return err
}

func applyDownMigrations(ctx context.Context, db *sql.DB, migrationsDir string) error {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return err
	}

	pattern := regexp.MustCompile(`^(\d+)_.*\.down\.sql$`)
	type migration struct {
		version string
		path    string
	}
	downs := make([]migration, 0)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		match := pattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		downs = append(downs, migration{
			version: match[1],
			path:    filepath.Join(migrationsDir, name),
		})
	}

	sort.Slice(downs, func(i, j int) bool {
		return downs[i].version > downs[j].version
	})

	for _, down := range downs {
		sqlBytes, err := os.ReadFile(down.path)
		if err != nil {
			return err
		}
		sqlText := strings.TrimSpace(string(sqlBytes))
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			return err
		}
	}

	return nil
}
