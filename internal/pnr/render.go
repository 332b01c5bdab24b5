package pnr

import (
	"fmt"
	"strings"
)

// ReturnSeparator opens the return half of a round trip.
const ReturnSeparator = "---------<回程>---------"

// Render produces the itinerary text. It is deterministic in its inputs.
func Render(passengers []Passenger, segments []Segment, events []LayoverEvent) string {
	var b strings.Builder

	for i, p := range passengers {
		fmt.Fprintf(&b, "乘客%d: %s\n", i+1, p.Name)
	}

	layovers := make(map[int]LayoverEvent, len(events))
	for _, ev := range events {
		if ev.Kind == EventLayover {
			layovers[ev.SegmentIndex] = ev
		}
	}

	for i, s := range segments {
		if s.IsReturn {
			b.WriteString(ReturnSeparator + "\n")
		}
		if i == 0 || s.IsReturn {
			fmt.Fprintf(&b, "【%s月%s日】\n", s.Month, s.Day)
		}
		if ev, ok := layovers[i]; ok {
			fmt.Fprintf(&b, "%s停留时间: %d小时%d分\n", ev.Place, ev.Hours, ev.Minutes)
		}
		fmt.Fprintf(&b, "%s-%s-->-%s-%s\n", s.OriginName, s.DestName, s.Start, s.End)
	}

	return b.String()
}
