package airports

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"strings"
	"sync"
)

//go:embed airports.csv
var airportsCSV []byte

// Entry is one row of the built-in dataset.
type Entry struct {
	Code        string
	Name        string
	EnglishName string
	Timezone    string
}

var offline = sync.OnceValue(func() map[string]Entry {
	entries, err := parseEntries(airportsCSV)
	if err != nil {
		panic(fmt.Sprintf("airports: embedded dataset: %v", err))
	}
	return entries
})

// Offline returns the built-in dataset keyed by code. The map is shared and
// must not be modified.
func Offline() map[string]Entry {
	return offline()
}

func parseEntries(data []byte) (map[string]Entry, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = 4
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no header")
	}

	out := make(map[string]Entry, len(records)-1)
	for _, rec := range records[1:] {
		e := Entry{
			Code:        strings.ToUpper(strings.TrimSpace(rec[0])),
			Name:        strings.TrimSpace(rec[1]),
			EnglishName: strings.TrimSpace(rec[2]),
			Timezone:    strings.TrimSpace(rec[3]),
		}
		if _, dup := out[e.Code]; dup {
			return nil, fmt.Errorf("duplicate code %s", e.Code)
		}
		out[e.Code] = e
	}
	return out, nil
}
