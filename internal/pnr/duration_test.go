package pnr

import (
	"testing"
	"time"
)

func parsed(origin, dest, month, day, start, end string, offset int) ParsedSegment {
	return ParsedSegment{
		OriginCode: origin,
		DestCode:   dest,
		Month:      month,
		Day:        day,
		RawStart:   start,
		RawEnd:     end,
		DayOffset:  offset,
	}
}

func TestComputeDuration(t *testing.T) {
	tests := []struct {
		name        string
		zones       TimezoneLookup
		seg         ParsedSegment
		year        int
		elapsed     time.Duration
		text        string
		arrivalDate string
	}{
		{
			name:        "eastbound overnight",
			zones:       testZones,
			seg:         parsed("MAD", "PEK", "04", "10", "1310", "0600", 1),
			year:        2024,
			elapsed:     10*time.Hour + 50*time.Minute,
			text:        "10小时 50m",
			arrivalDate: "04-11",
		},
		{
			name:        "westbound same day",
			zones:       testZones,
			seg:         parsed("PEK", "MAD", "11", "06", "0155", "0700", 0),
			year:        2024,
			elapsed:     12*time.Hour + 5*time.Minute,
			text:        "12小时 5m",
			arrivalDate: "11-06",
		},
		{
			name:        "no zones means UTC",
			zones:       nil,
			seg:         parsed("MAD", "PEK", "04", "10", "1310", "0600", 1),
			year:        2024,
			elapsed:     16*time.Hour + 50*time.Minute,
			text:        "16小时 50m",
			arrivalDate: "04-11",
		},
		{
			name:        "unknown airport uses UTC",
			zones:       testZones,
			seg:         parsed("XXX", "YYY", "01", "31", "2300", "0100", 1),
			year:        2024,
			elapsed:     2 * time.Hour,
			text:        "2小时 0m",
			arrivalDate: "02-01",
		},
		{
			name:        "across the spring DST jump",
			zones:       mapZones{"LIS": "Europe/Lisbon", "MAD": "Europe/Madrid"},
			seg:         parsed("LIS", "MAD", "03", "31", "0030", "0330", 0),
			year:        2024,
			elapsed:     time.Hour,
			text:        "1小时 0m",
			arrivalDate: "03-31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := computeDuration(tt.zones, tt.seg, tt.year)
			if d.Status != DurationOK {
				t.Fatalf("Status = %v (err %v), want ok", d.Status, d.Err)
			}
			if d.Elapsed != tt.elapsed {
				t.Errorf("Elapsed = %v, want %v", d.Elapsed, tt.elapsed)
			}
			if d.Text != tt.text {
				t.Errorf("Text = %q, want %q", d.Text, tt.text)
			}
			if d.ArrivalDate != tt.arrivalDate {
				t.Errorf("ArrivalDate = %q, want %q", d.ArrivalDate, tt.arrivalDate)
			}
		})
	}
}

func TestComputeDurationDegraded(t *testing.T) {
	tests := []struct {
		name        string
		zones       TimezoneLookup
		seg         ParsedSegment
		arrivalDate string
	}{
		{"bad zone name", mapZones{"MAD": "Mars/Olympus"}, parsed("MAD", "PEK", "04", "10", "1310", "0600", 1), "04-10"},
		{"unknown month", testZones, parsed("MAD", "PEK", UnknownMonth, "10", "1310", "0600", 1), "-1-10"},
		{"no such day", testZones, parsed("MAD", "PEK", "02", "30", "1310", "0600", 1), "02-30"},
		{"bad clock", testZones, parsed("MAD", "PEK", "04", "10", "2575", "0600", 1), "04-10"},
		{"arrival before departure", nil, parsed("MAD", "PEK", "04", "10", "1310", "0600", 0), "04-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := computeDuration(tt.zones, tt.seg, 2024)
			if d.Status != DurationDegraded {
				t.Fatalf("Status = %v, want degraded", d.Status)
			}
			if d.Err == nil {
				t.Error("degraded duration should carry its cause")
			}
			if d.Text != DegradedDuration {
				t.Errorf("Text = %q, want %q", d.Text, DegradedDuration)
			}
			if d.ArrivalDate != tt.arrivalDate {
				t.Errorf("ArrivalDate = %q, want %q", d.ArrivalDate, tt.arrivalDate)
			}
		})
	}
}

func TestDurationText(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0小时 0m"},
		{59 * time.Minute, "0小时 59m"},
		{25*time.Hour + 3*time.Minute + 40*time.Second, "25小时 3m"},
	}
	for _, tt := range tests {
		if got := durationText(tt.d); got != tt.want {
			t.Errorf("durationText(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
