package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config selects and configures the backends.
type Config struct {
	SQLitePath string           `yaml:"sqlite_path"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// DefaultConfig returns a configuration with default local development settings.
func DefaultConfig() Config {
	return Config{
		SQLitePath: "billete.db",
		Postgres: PostgresConfig{
			Port:    5432,
			SSLMode: "disable",
		},
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "billete",
			User:     "default",
		},
	}
}

// UsesPostgres reports whether cfg selects the PostgreSQL backend: a
// postgres:// or postgresql:// URL, or an explicit host.
func (cfg Config) UsesPostgres() bool {
	u := cfg.Postgres.URL
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") || cfg.Postgres.Host != ""
}

// Archive receives copies of history entries.
type Archive interface {
	ArchiveHistory(ctx context.Context, entries []HistoryEntry) error
	Close() error
}

// DB is the Store the services use: a primary backend, optionally teed
// to a history archive.
type DB struct {
	Store
	archive Archive
	routes  *ClickHouseDB
}

// Open opens the configured primary backend and, when enabled, the
// ClickHouse archive.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	var primary Store
	if cfg.UsesPostgres() {
		pg, err := OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		primary = pg
	} else {
		path := cfg.SQLitePath
		if path == "" {
			path = DefaultConfig().SQLitePath
		}
		lite, err := OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		primary = lite
	}

	db := &DB{Store: primary}
	if cfg.ClickHouse.Enabled {
		ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			_ = primary.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		db.archive = ch
		db.routes = ch
	}
	return db, nil
}

// NewDB wraps an already open backend. archive may be nil.
func NewDB(primary Store, archive Archive) *DB {
	db := &DB{Store: primary, archive: archive}
	if ch, ok := archive.(*ClickHouseDB); ok {
		db.routes = ch
	}
	return db
}

// AddHistory writes to the primary backend, then to the archive. An
// archive failure is returned wrapped in ErrArchive together with the
// primary ID.
func (d *DB) AddHistory(ctx context.Context, e HistoryEntry) (int64, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	id, err := d.Store.AddHistory(ctx, e)
	if err != nil {
		return 0, err
	}
	if d.archive == nil {
		return id, nil
	}

	e.ID = id
	if err := d.archive.ArchiveHistory(ctx, []HistoryEntry{e}); err != nil {
		return id, fmt.Errorf("%w: %w", ErrArchive, err)
	}
	return id, nil
}

// Archived reports whether a history archive is attached.
func (d *DB) Archived() bool {
	return d.archive != nil
}

// TopRoutes returns the most frequent archived routes. Without a
// ClickHouse archive it returns nil.
func (d *DB) TopRoutes(ctx context.Context, since time.Time, limit int) ([]RouteCount, error) {
	if d.routes == nil {
		return nil, nil
	}
	return d.routes.TopRoutes(ctx, since, limit)
}

// Close closes the archive and the primary backend.
func (d *DB) Close() error {
	var errs []error
	if d.archive != nil {
		if err := d.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse: %w", err))
		}
	}
	if err := d.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
