package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Indexer.RankingCap != 100 {
		t.Errorf("Indexer.RankingCap = %d, want 100", cfg.Indexer.RankingCap)
	}
	if cfg.Loader.RowLimit != 5000 {
		t.Errorf("Loader.RowLimit = %d, want 5000", cfg.Loader.RowLimit)
	}
	if cfg.Kafka.Enabled {
		t.Error("Kafka must be disabled by default")
	}
	if cfg.Query.Timeout != 10*time.Second {
		t.Errorf("Query.Timeout = %v", cfg.Query.Timeout)
	}
}

func TestLoadFile(t *testing.T) {
	yaml := `
redis:
  addr: "redis.internal:6390"
indexer:
  rankingCap: 50
report:
  persist: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr != "redis.internal:6390" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Indexer.RankingCap != 50 {
		t.Errorf("Indexer.RankingCap = %d, want 50", cfg.Indexer.RankingCap)
	}
	if !cfg.Report.Persist {
		t.Error("Report.Persist should be true")
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does/not/exist.yaml"); err == nil {
		t.Error("Load with a missing file must fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MI_REDIS_ADDR", "override:6400")
	t.Setenv("MI_POSTGRES_PORT", "5444")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr != "override:6400" {
		t.Errorf("Redis.Addr = %q, want override:6400", cfg.Redis.Addr)
	}
	if cfg.Postgres.Port != 5444 {
		t.Errorf("Postgres.Port = %d, want 5444", cfg.Postgres.Port)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     5432,
		Database: "movieindex",
		User:     "app",
		Password: "secret",
		SSLMode:  "disable",
	}
	want := "host=db port=5432 user=app password=secret dbname=movieindex sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
