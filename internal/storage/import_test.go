package storage

import (
	"context"
	"strings"
	"testing"
)

func TestImportAirports(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	input := "MAD:马德里\npek: 北京 :Asia/Shanghai\n\nbroken line\n:nameless\nLIS:里斯本\n"
	n, err := ImportAirports(ctx, strings.NewReader(input), db)
	if err != nil {
		t.Fatalf("ImportAirports() error = %v", err)
	}
	if n != 3 {
		t.Errorf("imported %d airports, want 3", n)
	}

	a, err := db.GetAirport(ctx, "PEK")
	if err != nil {
		t.Fatalf("GetAirport() error = %v", err)
	}
	if a.Name != "北京" || a.Timezone != "Asia/Shanghai" {
		t.Errorf("PEK = %+v", a)
	}
}

func TestImportHistoryOldestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)

	input := `[
		{"timestamp": "2024-04-12 10:00:00", "code": "newest", "result": "c", "passenger_info": "A", "route_info": "MAD-PEK"},
		{"timestamp": "2024-04-11 10:00:00", "code": "middle", "result": "b"},
		{"timestamp": "not a time", "code": "oldest", "result": "a"}
	]`
	n, err := ImportHistory(ctx, strings.NewReader(input), db)
	if err != nil {
		t.Fatalf("ImportHistory() error = %v", err)
	}
	if n != 3 {
		t.Errorf("imported %d entries, want 3", n)
	}

	got, _ := db.ListHistory(ctx, 0)
	if len(got) != 3 {
		t.Fatalf("ListHistory() returned %d entries", len(got))
	}
	for i, want := range []string{"newest", "middle", "oldest"} {
		if got[i].Code != want {
			t.Errorf("ListHistory()[%d].Code = %q, want %q", i, got[i].Code, want)
		}
	}
	if got[0].PassengerInfo != "A" || got[0].RouteInfo != "MAD-PEK" {
		t.Errorf("newest = %+v", got[0])
	}
}

func TestImportHistoryBadJSON(t *testing.T) {
	if _, err := ImportHistory(context.Background(), strings.NewReader("{"), openTestSQLite(t)); err == nil {
		t.Error("expected decode error")
	}
}
