// Package pnr turns a raw GDS booking-code dump (a PNR) into a passenger
// roster, ordered flight segments, layover events and a rendered itinerary.
//
// The package performs no I/O. Airport display names and IANA time zones
// come from the NameResolver and TimezoneLookup supplied to New.
package pnr

import (
	"fmt"
	"time"
)

// Passenger is one entry of the manifest line, in manifest order.
type Passenger struct {
	Name       string `json:"name"`
	SequenceID string `json:"id"` // P1, P2, ...
	Passport   string `json:"passport"`
	Ticket     string `json:"ticket"`
}

// ParsedSegment is a flight line as read from the record, before the
// calendar and duration stages have run.
type ParsedSegment struct {
	FlightID   string `json:"flight_id"`
	OriginCode string `json:"origin_code"`
	DestCode   string `json:"dest_code"`
	OriginName string `json:"origin"`
	DestName   string `json:"dest"`
	Start      string `json:"start"` // HH:MM
	End        string `json:"end"`   // HH:MM, with +N when DayOffset > 0
	Month      string `json:"month"` // 01..12, or UnknownMonth
	Day        string `json:"day"`
	NextDay    bool   `json:"next_day"`
	DayOffset  int    `json:"day_offset,omitempty"`
	RawStart   string `json:"raw_start"` // HHMM
	RawEnd     string `json:"raw_end"`   // HHMM
}

// Segment is a ParsedSegment after year inference, duration computation and
// return detection.
type Segment struct {
	ParsedSegment
	Year     int      `json:"year"`
	Duration Duration `json:"duration"`
	IsReturn bool     `json:"is_return"`
}

// DurationStatus tags whether a Duration was computed or fell back.
type DurationStatus int

const (
	DurationOK DurationStatus = iota
	DurationDegraded
)

func (s DurationStatus) String() string {
	if s == DurationOK {
		return "ok"
	}
	return "degraded"
}

// MarshalText renders the status name in JSON output.
func (s DurationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *DurationStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ok":
		*s = DurationOK
	case "degraded":
		*s = DurationDegraded
	default:
		return fmt.Errorf("unknown duration status %q", b)
	}
	return nil
}

// Duration is the elapsed flight time between the departure and arrival
// instants, each in its own airport's zone.
type Duration struct {
	Elapsed     time.Duration  `json:"elapsed"`
	Text        string         `json:"text"`         // "10小时 50m", or "--" when degraded
	ArrivalDate string         `json:"arrival_date"` // MM-DD in arrival local time
	Status      DurationStatus `json:"status"`
	Err         error          `json:"-"`
}

// EventKind classifies the gap preceding a segment.
type EventKind int

const (
	EventLayover EventKind = iota
	EventReturnSplit
)

func (k EventKind) String() string {
	if k == EventReturnSplit {
		return "return_split"
	}
	return "layover"
}

// MarshalText renders the kind name in JSON output.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "layover":
		*k = EventLayover
	case "return_split":
		*k = EventReturnSplit
	default:
		return fmt.Errorf("unknown event kind %q", b)
	}
	return nil
}

// LayoverEvent describes the gap immediately preceding Segments[SegmentIndex].
type LayoverEvent struct {
	Kind         EventKind `json:"kind"`
	Place        string    `json:"place,omitempty"`
	Hours        int       `json:"hours"`
	Minutes      int       `json:"minutes"`
	SegmentIndex int       `json:"segment_index"`
	Anomaly      bool      `json:"anomaly,omitempty"` // gap was negative or could not be computed
}

// Metadata is a passport or ticket value that could not be attached to a
// passenger because the roster does not hold exactly one entry.
type Metadata struct {
	Field string `json:"field"` // "passport" or "ticket"
	Value string `json:"value"`
	Line  string `json:"line"`
}

// Result is everything one Process call produces.
type Result struct {
	Passengers []Passenger    `json:"passengers"`
	Segments   []Segment      `json:"segments"`
	Layovers   []LayoverEvent `json:"layovers"`
	Unmatched  []Metadata     `json:"unmatched,omitempty"`
	Dropped    int            `json:"dropped"` // flight-like lines skipped as unparsable
	Text       string         `json:"text"`
}
