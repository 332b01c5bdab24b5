package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "billete.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteAirports(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	if err := db.UpsertAirport(ctx, Airport{Code: " mad ", Name: "马德里", Timezone: "Europe/Madrid"}); err != nil {
		t.Fatalf("UpsertAirport() error = %v", err)
	}
	if err := db.UpsertAirport(ctx, Airport{Code: "PEK", Name: "北京"}); err != nil {
		t.Fatalf("UpsertAirport() error = %v", err)
	}

	a, err := db.GetAirport(ctx, "mad")
	if err != nil {
		t.Fatalf("GetAirport() error = %v", err)
	}
	if a.Code != "MAD" || a.Name != "马德里" || a.Timezone != "Europe/Madrid" {
		t.Errorf("GetAirport() = %+v", a)
	}

	// Renaming without a zone keeps the stored zone.
	if err := db.UpsertAirport(ctx, Airport{Code: "MAD", Name: "马德里巴拉哈斯"}); err != nil {
		t.Fatalf("UpsertAirport() error = %v", err)
	}
	a, _ = db.GetAirport(ctx, "MAD")
	if a.Name != "马德里巴拉哈斯" || a.Timezone != "Europe/Madrid" {
		t.Errorf("after rename = %+v", a)
	}

	list, err := db.ListAirports(ctx)
	if err != nil {
		t.Fatalf("ListAirports() error = %v", err)
	}
	if len(list) != 2 || list[0].Code != "MAD" || list[1].Code != "PEK" {
		t.Errorf("ListAirports() = %+v", list)
	}

	if err := db.DeleteAirport(ctx, "pek"); err != nil {
		t.Fatalf("DeleteAirport() error = %v", err)
	}
	if err := db.DeleteAirport(ctx, "PEK"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteAirport() error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetAirport(ctx, "PEK"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAirport(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteHistory(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	base := time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC)
	for i, code := range []string{"first", "second", "third"} {
		_, err := db.AddHistory(ctx, HistoryEntry{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Code:      code,
			Result:    "result " + code,
			RouteInfo: "MAD-PEK",
		})
		if err != nil {
			t.Fatalf("AddHistory() error = %v", err)
		}
	}

	got, err := db.ListHistory(ctx, 0)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(got) != 3 || got[0].Code != "third" || got[2].Code != "first" {
		t.Fatalf("ListHistory() order = %+v", got)
	}
	if !got[0].Timestamp.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("Timestamp = %v", got[0].Timestamp)
	}

	limited, _ := db.ListHistory(ctx, 2)
	if len(limited) != 2 {
		t.Errorf("ListHistory(2) returned %d entries", len(limited))
	}

	n, err := db.CountHistorySince(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("CountHistorySince() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountHistorySince() = %d, want 2", n)
	}

	if err := db.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory() error = %v", err)
	}
	got, _ = db.ListHistory(ctx, 0)
	if len(got) != 0 {
		t.Errorf("history not cleared: %+v", got)
	}
}
