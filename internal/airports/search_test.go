package airports

import (
	"context"
	"testing"

	"billete/internal/storage"
)

func TestSearch(t *testing.T) {
	d := New(nil)
	ctx := context.Background()

	tests := []struct {
		query string
		first string
	}{
		{"MAD", "MAD"},
		{"pek", "PEK"},
		{"madrid", "MAD"},
		{"lisbon", "LIS"},
		{"马德里", "MAD"},
		{"frankfrut", "FRA"},
	}
	for _, tt := range tests {
		got, err := d.Search(ctx, tt.query, 5)
		if err != nil {
			t.Fatalf("Search(%q) error = %v", tt.query, err)
		}
		if len(got) == 0 || got[0].Code != tt.first {
			t.Errorf("Search(%q) = %+v, want %s first", tt.query, got, tt.first)
		}
	}
}

func TestSearchLimitAndOrder(t *testing.T) {
	d := New(nil)
	got, err := d.Search(context.Background(), "beijing", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d matches, want 1", len(got))
	}
	if got[0].Code != "PEK" && got[0].Code != "PKX" {
		t.Errorf("Search(beijing) = %+v", got)
	}

	if got, _ := d.Search(context.Background(), "  ", 5); got != nil {
		t.Errorf("blank query returned %+v", got)
	}
}

func TestSearchIncludesStored(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	if err := store.UpsertAirport(ctx, storage.Airport{Code: "QQQ", Name: "Testville"}); err != nil {
		t.Fatal(err)
	}
	d := New(store)

	got, err := d.Search(ctx, "testville", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0].Code != "QQQ" {
		t.Errorf("Search(testville) = %+v", got)
	}
}
