// Package storage persists the airport directory and the conversion history.
//
// SQLite is the default backend; PostgreSQL is used when a postgres URL is
// configured. History can additionally be archived to ClickHouse.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a keyed lookup or delete matches no row.
var ErrNotFound = errors.New("not found")

// ErrArchive wraps failures of the secondary history archive. The primary
// write has already succeeded when it is returned.
var ErrArchive = errors.New("history archive")

// DefaultHistoryLimit is the number of entries ListHistory returns when the
// caller passes no limit.
const DefaultHistoryLimit = 100

// Airport is one airport directory row.
type Airport struct {
	Code      string    `json:"code"` // IATA, upper case
	Name      string    `json:"name"` // display name
	Timezone  string    `json:"tz,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryEntry is one recorded conversion.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Code          string    `json:"code"`
	Result        string    `json:"result"`
	PassengerInfo string    `json:"passenger_info"`
	RouteInfo     string    `json:"route_info"`
}

// AirportStore holds airport directory rows keyed by code.
type AirportStore interface {
	UpsertAirport(ctx context.Context, a Airport) error
	GetAirport(ctx context.Context, code string) (*Airport, error)
	ListAirports(ctx context.Context) ([]Airport, error)
	DeleteAirport(ctx context.Context, code string) error
}

// HistoryStore is the append-only conversion log.
type HistoryStore interface {
	AddHistory(ctx context.Context, e HistoryEntry) (int64, error)
	ListHistory(ctx context.Context, limit int) ([]HistoryEntry, error)
	ClearHistory(ctx context.Context) error
	CountHistorySince(ctx context.Context, since time.Time) (int, error)
}

// Store is a full backend.
type Store interface {
	AirportStore
	HistoryStore
	Close() error
}

// NormalizeCode trims and upper-cases an airport code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
