package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeArchive struct {
	entries []HistoryEntry
	err     error
	closed  bool
}

func (f *fakeArchive) ArchiveHistory(_ context.Context, entries []HistoryEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeArchive) Close() error {
	f.closed = true
	return nil
}

func TestDBTeesHistory(t *testing.T) {
	ctx := context.Background()
	archive := &fakeArchive{}
	db := NewDB(openTestSQLite(t), archive)

	id, err := db.AddHistory(ctx, HistoryEntry{Code: "x", Result: "y"})
	if err != nil {
		t.Fatalf("AddHistory() error = %v", err)
	}
	if len(archive.entries) != 1 || archive.entries[0].ID != id {
		t.Errorf("archive = %+v, want one entry with ID %d", archive.entries, id)
	}
	if archive.entries[0].Timestamp.IsZero() {
		t.Error("archived entry has no timestamp")
	}
	if !db.Archived() {
		t.Error("Archived() = false")
	}
}

func TestDBArchiveFailureKeepsPrimary(t *testing.T) {
	ctx := context.Background()
	archive := &fakeArchive{err: errors.New("connection refused")}
	db := NewDB(openTestSQLite(t), archive)

	id, err := db.AddHistory(ctx, HistoryEntry{Code: "x", Result: "y"})
	if !errors.Is(err, ErrArchive) {
		t.Fatalf("AddHistory() error = %v, want ErrArchive", err)
	}
	if id == 0 {
		t.Error("primary ID lost")
	}
	got, _ := db.ListHistory(ctx, 0)
	if len(got) != 1 {
		t.Errorf("primary has %d entries, want 1", len(got))
	}
}

func TestDBWithoutArchive(t *testing.T) {
	db := NewDB(openTestSQLite(t), nil)
	routes, err := db.TopRoutes(context.Background(), time.Now(), 5)
	if err != nil || routes != nil {
		t.Errorf("TopRoutes() = %v, %v; want nil, nil", routes, err)
	}
	if db.Archived() {
		t.Error("Archived() = true")
	}
}

func TestDBCloseClosesArchive(t *testing.T) {
	archive := &fakeArchive{}
	lite, err := OpenSQLite(t.TempDir() + "/close.db")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := NewDB(lite, archive).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !archive.closed {
		t.Error("archive not closed")
	}
}

func TestUsesPostgres(t *testing.T) {
	tests := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, false},
		{Config{Postgres: PostgresConfig{URL: "postgres://u:p@db/billete"}}, true},
		{Config{Postgres: PostgresConfig{URL: "postgresql://u:p@db/billete"}}, true},
		{Config{Postgres: PostgresConfig{URL: "sqlite:///billete.db"}}, false},
		{Config{Postgres: PostgresConfig{Host: "db"}}, true},
	}
	for _, tt := range tests {
		if got := tt.cfg.UsesPostgres(); got != tt.want {
			t.Errorf("UsesPostgres(%+v) = %v, want %v", tt.cfg.Postgres, got, tt.want)
		}
	}
}

func TestPostgresConnString(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, Database: "billete", User: "u", Password: "p"}
	want := "postgres://u:p@db:5432/billete?sslmode=disable"
	if got := cfg.ConnString(); got != want {
		t.Errorf("ConnString() = %q, want %q", got, want)
	}
	cfg.URL = "postgres://other"
	if got := cfg.ConnString(); got != "postgres://other" {
		t.Errorf("ConnString() with URL = %q", got)
	}
}
