package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"API_ADDR", "DATABASE_URL", "JOBTRACK_JWT_SECRET", "JOBTRACK_ACCESS_TTL_SECONDS",
		"JOBTRACK_REFRESH_TTL_SECONDS", "JOBTRACK_MIGRATIONS_DIR", "JOBTRACK_CORS_ORIGIN",
		"MEILI_URL", "MEILI_MASTER_KEY", "REDIS_URL", "LOG_LEVEL", "LOG_FORMAT",
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_USE_SSL",
		"EXPORT_URL_TTL", "JOBTRACK_CONFIG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":8787" || cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ArchiveEnabled() {
		t.Fatal("archive should be disabled without an endpoint")
	}
}

func TestRedisSessionsAreOptIn(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RedisURL != "" {
		t.Fatalf("RedisURL = %q, want empty so sessions stay in Postgres", cfg.RedisURL)
	}

	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RedisURL != "redis://cache:6379/1" {
		t.Fatalf("RedisURL = %q", cfg.RedisURL)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "jobtrack.toml")
	contents := `
addr = ":9000"
access_ttl_seconds = 60

[log]
level = "debug"

[s3]
endpoint = "localhost:9000"
bucket = "exports"
use_ssl = true
url_ttl_seconds = 120
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("JOBTRACK_CONFIG", path)
	t.Setenv("API_ADDR", ":9100")
	t.Setenv("EXPORT_URL_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Fatalf("Addr = %q, want env value", cfg.Addr)
	}
	if cfg.AccessTTL != time.Minute || cfg.LogLevel != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if !cfg.ArchiveEnabled() || cfg.S3Bucket != "exports" || !cfg.S3UseSSL {
		t.Fatalf("s3 values not applied: %+v", cfg)
	}
	if cfg.ExportURLTTL != 5*time.Minute {
		t.Fatalf("ExportURLTTL = %v", cfg.ExportURLTTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("JOBTRACK_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestGetenvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")
	if getenvInt("X_INT", 7) != 7 || getenvBool("X_BOOL", true) != true || getenvDuration("X_DUR", time.Second) != time.Second {
		t.Fatal("expected fallbacks")
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) error = %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("Chdir(%q) error = %v", prev, err)
		}
	})
}
