package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then a .env file in the working directory (if any),
// then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	// Load .env file if it exists
	_ = godotenv.Load()
	ApplyEnv(cfg, os.Getenv)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config over the defaults and validates the
// result. The environment is not consulted.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg from environment variables read through getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, err := strconv.Atoi(getenv(key)); err == nil {
			*dst = v
		}
	}

	if port := getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if lvl := getenv("LOG_LEVEL"); lvl != "" {
		cfg.Server.LogLevel = LogLevel(strings.ToLower(lvl))
	}
	if keys := getenv("API_KEYS"); keys != "" {
		cfg.Server.APIKeys = splitList(keys)
	}
	if origins := getenv("CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}

	if dbURL := getenv("DATABASE_URL"); dbURL != "" {
		if path, ok := strings.CutPrefix(dbURL, "sqlite:///"); ok {
			cfg.Storage.SQLitePath = path
		} else {
			cfg.Storage.Postgres.URL = dbURL
		}
	}
	str("SQLITE_PATH", &cfg.Storage.SQLitePath)
	str("POSTGRES_HOST", &cfg.Storage.Postgres.Host)
	num("POSTGRES_PORT", &cfg.Storage.Postgres.Port)
	str("POSTGRES_USER", &cfg.Storage.Postgres.User)
	str("POSTGRES_PASSWORD", &cfg.Storage.Postgres.Password)
	str("POSTGRES_DB", &cfg.Storage.Postgres.Database)
	str("POSTGRES_SSLMODE", &cfg.Storage.Postgres.SSLMode)

	if v, err := strconv.ParseBool(getenv("CLICKHOUSE_ENABLED")); err == nil {
		cfg.Storage.ClickHouse.Enabled = v
	}
	str("CLICKHOUSE_HOST", &cfg.Storage.ClickHouse.Host)
	num("CLICKHOUSE_PORT", &cfg.Storage.ClickHouse.Port)
	str("CLICKHOUSE_DB", &cfg.Storage.ClickHouse.Database)
	str("CLICKHOUSE_USER", &cfg.Storage.ClickHouse.User)
	str("CLICKHOUSE_PASSWORD", &cfg.Storage.ClickHouse.Password)

	str("NATS_URL", &cfg.NATS.URL)
	str("NATS_SUBJECT", &cfg.NATS.Subject)
	str("NATS_QUEUE", &cfg.NATS.Queue)

	str("AIRPORT_LOOKUP_URL", &cfg.Airports.LookupURL)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	pg := cfg.Storage.Postgres
	if pg.URL != "" && !cfg.Storage.UsesPostgres() {
		errs = append(errs, fmt.Errorf("storage.postgres.url %q is not a postgres:// URL", pg.URL))
	}
	if pg.Host != "" && pg.URL == "" && pg.Database == "" {
		errs = append(errs, errors.New("storage.postgres.database is required when storage.postgres.host is set"))
	}
	if ch := cfg.Storage.ClickHouse; ch.Enabled && (ch.Host == "" || ch.Port <= 0) {
		errs = append(errs, errors.New("storage.clickhouse.host and port are required when the archive is enabled"))
	}

	if cfg.NATS.URL != "" && cfg.NATS.Subject == "" {
		errs = append(errs, errors.New("nats.subject is required when nats.url is set"))
	}

	if u := cfg.Airports.LookupURL; u != "" {
		if parsed, err := url.Parse(u); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("airports.lookup_url %q is not an absolute URL", u))
		}
	}

	l := cfg.Luggage
	for name, v := range map[string]int{
		"luggage.hand_count":  l.HandCount,
		"luggage.hand_weight": l.HandWeight,
		"luggage.pack_count":  l.PackCount,
		"luggage.pack_weight": l.PackWeight,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s %d must not be negative", name, v))
		}
	}

	return errors.Join(errs...)
}
