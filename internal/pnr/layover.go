package pnr

import "time"

// ReturnSplitThreshold is the gap from which the next segment is treated as
// the start of the return journey rather than a connection.
const ReturnSplitThreshold = 72 * time.Hour

// detectLayovers emits exactly one event for every segment index >= 1.
// Gaps use naive local wall time on both ends.
func detectLayovers(segs []Segment) []LayoverEvent {
	if len(segs) < 2 {
		return nil
	}

	thresholdHours := int(ReturnSplitThreshold / time.Hour)
	events := make([]LayoverEvent, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		prev, curr := segs[i-1], segs[i]
		ev := LayoverEvent{Kind: EventLayover, Place: prev.DestName, SegmentIndex: i}

		gap, ok := naiveGap(prev, curr)
		if !ok || gap < 0 {
			ev.Anomaly = true
			events = append(events, ev)
			continue
		}

		total := int(gap / time.Minute)
		hours, minutes := total/60, total%60
		if hours >= thresholdHours {
			events = append(events, LayoverEvent{
				Kind:         EventReturnSplit,
				Hours:        hours,
				Minutes:      minutes,
				SegmentIndex: i,
			})
			continue
		}
		ev.Hours, ev.Minutes = hours, minutes
		events = append(events, ev)
	}
	return events
}

// naiveGap is departure(curr) - arrival(prev), both in UTC wall time.
func naiveGap(prev, curr Segment) (time.Duration, bool) {
	arr, err := wallTime(prev.Year, prev.Month, prev.Day, prev.RawEnd, time.UTC)
	if err != nil {
		return 0, false
	}
	arr = arr.AddDate(0, 0, prev.DayOffset)

	dep, err := wallTime(curr.Year, curr.Month, curr.Day, curr.RawStart, time.UTC)
	if err != nil {
		return 0, false
	}
	return dep.Sub(arr), true
}

// markReturns copies segs with IsReturn set where a ReturnSplit precedes them.
func markReturns(segs []Segment, events []LayoverEvent) []Segment {
	out := make([]Segment, len(segs))
	copy(out, segs)
	for _, ev := range events {
		if ev.Kind == EventReturnSplit && ev.SegmentIndex < len(out) {
			out[ev.SegmentIndex].IsReturn = true
		}
	}
	return out
}
