package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"billete/internal/config"
)

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Errorf("Addr = %q, want :5000", cfg.Server.Addr)
	}
	if cfg.Storage.SQLitePath != "billete.db" {
		t.Errorf("SQLitePath = %q, want billete.db", cfg.Storage.SQLitePath)
	}
	if cfg.Storage.UsesPostgres() {
		t.Error("default config should use SQLite")
	}
	l := cfg.Luggage
	if l.HandCount != 1 || l.HandWeight != 8 || l.PackCount != 2 || l.PackWeight != 23 {
		t.Errorf("Luggage = %+v, want 1/8/2/23", l)
	}
	if cfg.NATS.Subject != "billete.convert" {
		t.Errorf("NATS.Subject = %q", cfg.NATS.Subject)
	}
}

func TestLoadFromReader_Overrides(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  addr: ":8080"
  log_level: debug
  request_timeout: 5s
storage:
  postgres:
    url: postgres://u:p@db:5432/billete
luggage:
  pack_count: 1
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.Server.RequestTimeout)
	}
	if !cfg.Storage.UsesPostgres() {
		t.Error("postgres URL should select PostgreSQL")
	}
	if cfg.Luggage.PackCount != 1 || cfg.Luggage.PackWeight != 23 {
		t.Errorf("Luggage = %+v", cfg.Luggage)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("server:\n  adress: \":1\"\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
airports:
  lookup_url: not-a-url
luggage:
  hand_count: -1
nats:
  url: nats://localhost:4222
  subject: ""
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{"log_level", "lookup_url", "hand_count", "nats.subject"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()
	env := map[string]string{
		"PORT":               "9090",
		"LOG_LEVEL":          "WARN",
		"API_KEYS":           "k1, k2,,",
		"DATABASE_URL":       "postgresql://u:p@db/billete",
		"CLICKHOUSE_ENABLED": "true",
		"CLICKHOUSE_PORT":    "9440",
		"NATS_URL":           "nats://q:4222",
		"AIRPORT_LOOKUP_URL": "https://airports.example/api",
	}
	cfg := config.Default()
	config.ApplyEnv(cfg, func(k string) string { return env[k] })

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.LogLevel != config.LogWarn {
		t.Errorf("LogLevel = %q", cfg.Server.LogLevel)
	}
	if len(cfg.Server.APIKeys) != 2 || cfg.Server.APIKeys[1] != "k2" {
		t.Errorf("APIKeys = %q", cfg.Server.APIKeys)
	}
	if cfg.Storage.Postgres.URL != "postgresql://u:p@db/billete" || !cfg.Storage.UsesPostgres() {
		t.Errorf("Postgres = %+v", cfg.Storage.Postgres)
	}
	if !cfg.Storage.ClickHouse.Enabled || cfg.Storage.ClickHouse.Port != 9440 {
		t.Errorf("ClickHouse = %+v", cfg.Storage.ClickHouse)
	}
	if cfg.NATS.URL != "nats://q:4222" || cfg.Airports.LookupURL != "https://airports.example/api" {
		t.Errorf("NATS/Airports = %+v %+v", cfg.NATS, cfg.Airports)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestApplyEnv_SQLiteURL(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	config.ApplyEnv(cfg, func(k string) string {
		if k == "DATABASE_URL" {
			return "sqlite:///data/billete.db"
		}
		return ""
	})
	if cfg.Storage.SQLitePath != "data/billete.db" || cfg.Storage.UsesPostgres() {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billete.yaml")
	if err := os.WriteFile(path, []byte("server:\n  metrics_namespace: test\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.MetricsNamespace != "test" {
		t.Errorf("MetricsNamespace = %q", cfg.Server.MetricsNamespace)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExampleConfig(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "configs", "example.yaml"))
	if err != nil {
		t.Fatalf("open example: %v", err)
	}
	defer f.Close()

	cfg, err := config.LoadFromReader(f)
	if err != nil {
		t.Fatalf("LoadFromReader(example.yaml) error = %v", err)
	}
	if cfg.Luggage != config.Default().Luggage {
		t.Errorf("Luggage = %+v, want the defaults", cfg.Luggage)
	}
	if cfg.Storage.UsesPostgres() {
		t.Error("example selects postgres, want sqlite")
	}
}
