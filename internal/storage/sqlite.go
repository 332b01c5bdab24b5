package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTime is fixed width so stored timestamps compare as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteDB is the default single-file backend.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (d *SQLiteDB) Close() error {
	return d.db.Close()
}

func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS airports (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		timezone TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		code TEXT NOT NULL,
		result TEXT NOT NULL,
		passenger_info TEXT,
		route_info TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp);
	`

	_, err := db.Exec(schema)
	return err
}

// UpsertAirport inserts or replaces an airport by code. An empty timezone
// keeps the stored one.
func (d *SQLiteDB) UpsertAirport(ctx context.Context, a Airport) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO airports (code, name, timezone, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			timezone = CASE WHEN excluded.timezone = '' THEN airports.timezone ELSE excluded.timezone END,
			updated_at = excluded.updated_at
	`, NormalizeCode(a.Code), a.Name, a.Timezone, a.UpdatedAt.UTC().Format(sqliteTime))
	if err != nil {
		return fmt.Errorf("upsert airport: %w", err)
	}
	return nil
}

// GetAirport returns the airport with the given code or ErrNotFound.
func (d *SQLiteDB) GetAirport(ctx context.Context, code string) (*Airport, error) {
	var a Airport
	var updated string
	err := d.db.QueryRowContext(ctx, `
		SELECT code, name, timezone, updated_at FROM airports WHERE code = ?
	`, NormalizeCode(code)).Scan(&a.Code, &a.Name, &a.Timezone, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get airport: %w", err)
	}
	a.UpdatedAt, _ = time.Parse(sqliteTime, updated)
	return &a, nil
}

// ListAirports returns every airport ordered by code.
func (d *SQLiteDB) ListAirports(ctx context.Context) ([]Airport, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT code, name, timezone, updated_at FROM airports ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list airports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Airport
	for rows.Next() {
		var a Airport
		var updated string
		if err := rows.Scan(&a.Code, &a.Name, &a.Timezone, &updated); err != nil {
			return nil, fmt.Errorf("scan airport: %w", err)
		}
		a.UpdatedAt, _ = time.Parse(sqliteTime, updated)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAirport removes an airport; ErrNotFound if it did not exist.
func (d *SQLiteDB) DeleteAirport(ctx context.Context, code string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM airports WHERE code = ?`, NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("delete airport: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete airport: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddHistory appends an entry and returns its ID.
func (d *SQLiteDB) AddHistory(ctx context.Context, e HistoryEntry) (int64, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO history (timestamp, code, result, passenger_info, route_info)
		VALUES (?, ?, ?, ?, ?)
	`, e.Timestamp.UTC().Format(sqliteTime), e.Code, e.Result, e.PassengerInfo, e.RouteInfo)
	if err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return result.LastInsertId()
}

// ListHistory returns the newest entries first.
func (d *SQLiteDB) ListHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, timestamp, code, result, passenger_info, route_info
		FROM history ORDER BY id DESC LIMIT ?
	`, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ts string
		var passengers, route sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.Code, &e.Result, &passengers, &route); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Timestamp, _ = time.Parse(sqliteTime, ts)
		e.PassengerInfo = passengers.String
		e.RouteInfo = route.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClearHistory deletes every history entry.
func (d *SQLiteDB) ClearHistory(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// CountHistorySince counts entries recorded at or after since.
func (d *SQLiteDB) CountHistorySince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE timestamp >= ?`,
		since.UTC().Format(sqliteTime)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
