package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ClickHouseDB is the long-term history archive.
type ClickHouseDB struct {
	conn driver.Conn
}

// OpenClickHouse opens a connection to ClickHouse and creates the archive table.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	d := &ClickHouseDB{conn: conn}
	if err := d.CreateSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the archive table.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	err := d.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS history_archive (
		id              Int64,
		timestamp       DateTime64(3),
		code            String,
		result          String,
		passenger_info  String,
		route_info      LowCardinality(String),
		archived_at     DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(timestamp)
	ORDER BY (timestamp, id)`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ArchiveHistory stores entries in one batch.
func (d *ClickHouseDB) ArchiveHistory(ctx context.Context, entries []HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO history_archive (id, timestamp, code, result, passenger_info, route_info)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range entries {
		if err := batch.Append(e.ID, e.Timestamp, e.Code, e.Result, e.PassengerInfo, e.RouteInfo); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// RouteCount is how often a route string was archived.
type RouteCount struct {
	Route string `json:"route"`
	Count uint64 `json:"count"`
}

// TopRoutes returns the most frequent archived routes since the given time.
func (d *ClickHouseDB) TopRoutes(ctx context.Context, since time.Time, limit int) ([]RouteCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := d.conn.Query(ctx, `
		SELECT route_info, count() AS n
		FROM history_archive
		WHERE timestamp >= ? AND route_info != ''
		GROUP BY route_info
		ORDER BY n DESC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query top routes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RouteCount
	for rows.Next() {
		var rc RouteCount
		if err := rows.Scan(&rc.Route, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
