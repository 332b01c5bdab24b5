package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection settings. URL, when set, wins
// over the individual fields.
type PostgresConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// ConnString returns the libpq-style URL for cfg.
func (cfg PostgresConfig) ConnString() string {
	if cfg.URL != "" {
		return cfg.URL
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, sslmode)
}

// PostgresDB wraps a PostgreSQL connection pool.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL and creates the schema.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	d := &PostgresDB{pool: pool}
	if err := d.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the connection pool.
func (d *PostgresDB) Close() error {
	d.pool.Close()
	return nil
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS airports (
		code        TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		timezone    TEXT NOT NULL DEFAULT '',
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS history (
		id              BIGSERIAL PRIMARY KEY,
		timestamp       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		code            TEXT NOT NULL,
		result          TEXT NOT NULL,
		passenger_info  TEXT NOT NULL DEFAULT '',
		route_info      TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// UpsertAirport inserts or updates an airport by code.
func (d *PostgresDB) UpsertAirport(ctx context.Context, a Airport) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now()
	}
	_, err := d.pool.Exec(ctx, `
		INSERT INTO airports (code, name, timezone, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			timezone = COALESCE(NULLIF(EXCLUDED.timezone, ''), airports.timezone),
			updated_at = EXCLUDED.updated_at
	`, NormalizeCode(a.Code), a.Name, a.Timezone, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert airport: %w", err)
	}
	return nil
}

// GetAirport retrieves an airport by code.
func (d *PostgresDB) GetAirport(ctx context.Context, code string) (*Airport, error) {
	var a Airport
	err := d.pool.QueryRow(ctx, `
		SELECT code, name, timezone, updated_at FROM airports WHERE code = $1
	`, NormalizeCode(code)).Scan(&a.Code, &a.Name, &a.Timezone, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get airport: %w", err)
	}
	return &a, nil
}

// ListAirports returns every airport ordered by code.
func (d *PostgresDB) ListAirports(ctx context.Context) ([]Airport, error) {
	rows, err := d.pool.Query(ctx, `SELECT code, name, timezone, updated_at FROM airports ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list airports: %w", err)
	}
	defer rows.Close()

	var out []Airport
	for rows.Next() {
		var a Airport
		if err := rows.Scan(&a.Code, &a.Name, &a.Timezone, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan airport: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAirport removes an airport; ErrNotFound if it did not exist.
func (d *PostgresDB) DeleteAirport(ctx context.Context, code string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM airports WHERE code = $1`, NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("delete airport: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddHistory appends an entry and returns its ID.
func (d *PostgresDB) AddHistory(ctx context.Context, e HistoryEntry) (int64, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO history (timestamp, code, result, passenger_info, route_info)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, e.Timestamp, e.Code, e.Result, e.PassengerInfo, e.RouteInfo).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return id, nil
}

// ListHistory returns the newest entries first.
func (d *PostgresDB) ListHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, timestamp, code, result, passenger_info, route_info
		FROM history ORDER BY id DESC LIMIT $1
	`, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Code, &e.Result, &e.PassengerInfo, &e.RouteInfo); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClearHistory deletes every history entry.
func (d *PostgresDB) ClearHistory(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// CountHistorySince counts entries recorded at or after since.
func (d *PostgresDB) CountHistorySince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := d.pool.QueryRow(ctx, `SELECT COUNT(*) FROM history WHERE timestamp >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
