package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ImportAirports reads legacy "CODE:Name[:Zone]" lines and upserts them.
// Lines without a colon are skipped. It returns the number imported.
func ImportAirports(ctx context.Context, r io.Reader, store AirportStore) (int, error) {
	sc := bufio.NewScanner(r)
	count := 0
	for sc.Scan() {
		parts := strings.Split(strings.TrimSpace(sc.Text()), ":")
		if len(parts) < 2 {
			continue
		}
		a := Airport{
			Code: NormalizeCode(parts[0]),
			Name: strings.TrimSpace(parts[1]),
		}
		if a.Code == "" || a.Name == "" {
			continue
		}
		if len(parts) >= 3 {
			a.Timezone = strings.TrimSpace(parts[2])
		}
		if err := store.UpsertAirport(ctx, a); err != nil {
			return count, fmt.Errorf("import %s: %w", a.Code, err)
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("read airports: %w", err)
	}
	return count, nil
}

// legacyHistory is one element of the old history.json array.
type legacyHistory struct {
	Timestamp     string `json:"timestamp"`
	Code          string `json:"code"`
	Result        string `json:"result"`
	PassengerInfo string `json:"passenger_info"`
	RouteInfo     string `json:"route_info"`
}

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

func parseLegacyTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ImportHistory reads a legacy newest-first history.json array and inserts
// it oldest-first, so that newer entries get higher IDs. Archive failures
// do not stop the import.
func ImportHistory(ctx context.Context, r io.Reader, store HistoryStore) (int, error) {
	var items []legacyHistory
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return 0, fmt.Errorf("decode history: %w", err)
	}

	now := time.Now()
	count := 0
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		ts, ok := parseLegacyTime(it.Timestamp)
		if !ok {
			ts = now
		}
		_, err := store.AddHistory(ctx, HistoryEntry{
			Timestamp:     ts,
			Code:          it.Code,
			Result:        it.Result,
			PassengerInfo: it.PassengerInfo,
			RouteInfo:     it.RouteInfo,
		})
		if err != nil && !errors.Is(err, ErrArchive) {
			return count, fmt.Errorf("import history entry %d: %w", i, err)
		}
		count++
	}
	return count, nil
}
