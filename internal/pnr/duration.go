package pnr

import (
	"errors"
	"fmt"
	"strconv"
	"time"
	_ "time/tzdata" // zone data for hosts without /usr/share/zoneinfo
)

// DegradedDuration is the duration text used when the computation fails.
const DegradedDuration = "--"

// TimezoneLookup maps an IATA code onto an IANA zone name.
type TimezoneLookup interface {
	TimezoneFor(code string) (zone string, ok bool)
}

var errBadClock = errors.New("bad wall clock")

// computeDuration attaches the departure wall time to the origin zone and
// the arrival wall time to the destination zone, so the result is elapsed
// time rather than a wall-clock difference.
func computeDuration(zones TimezoneLookup, seg ParsedSegment, year int) (d Duration) {
	fallback := seg.Month + "-" + seg.Day
	defer func() {
		if r := recover(); r != nil {
			d = degraded(fallback, fmt.Errorf("duration: %v", r))
		}
	}()

	depLoc, err := location(zones, seg.OriginCode)
	if err != nil {
		return degraded(fallback, err)
	}
	arrLoc, err := location(zones, seg.DestCode)
	if err != nil {
		return degraded(fallback, err)
	}

	dep, err := wallTime(year, seg.Month, seg.Day, seg.RawStart, depLoc)
	if err != nil {
		return degraded(fallback, err)
	}
	arr, err := wallTime(year, seg.Month, seg.Day, seg.RawEnd, arrLoc)
	if err != nil {
		return degraded(fallback, err)
	}
	arr = arr.AddDate(0, 0, seg.DayOffset)

	elapsed := arr.Sub(dep)
	if elapsed < 0 {
		return degraded(fallback, fmt.Errorf("arrival %s before departure %s", arr.Format(time.RFC3339), dep.Format(time.RFC3339)))
	}

	return Duration{
		Elapsed:     elapsed,
		Text:        durationText(elapsed),
		ArrivalDate: arr.Format("01-02"),
		Status:      DurationOK,
	}
}

func degraded(arrivalDate string, err error) Duration {
	return Duration{
		Text:        DegradedDuration,
		ArrivalDate: arrivalDate,
		Status:      DurationDegraded,
		Err:         err,
	}
}

// durationText renders whole hours and the remaining minutes: "10小时 50m".
func durationText(d time.Duration) string {
	total := int(d / time.Minute)
	return fmt.Sprintf("%d小时 %dm", total/60, total%60)
}

// location resolves the zone of an airport; unknown codes use UTC.
func location(zones TimezoneLookup, code string) (*time.Location, error) {
	if zones == nil {
		return time.UTC, nil
	}
	name, ok := zones.TimezoneFor(code)
	if !ok || name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q for %s: %w", name, code, err)
	}
	return loc, nil
}

// wallTime builds a local instant from string date parts and HHMM.
func wallTime(year int, month, day, hhmm string, loc *time.Location) (time.Time, error) {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, fmt.Errorf("%w: month %q", errBadClock, month)
	}
	dd, err := strconv.Atoi(day)
	if err != nil || dd < 1 || dd > 31 {
		return time.Time{}, fmt.Errorf("%w: day %q", errBadClock, day)
	}
	if len(hhmm) != 4 {
		return time.Time{}, fmt.Errorf("%w: time %q", errBadClock, hhmm)
	}
	hh, err1 := strconv.Atoi(hhmm[:2])
	mm, err2 := strconv.Atoi(hhmm[2:])
	if err1 != nil || err2 != nil || hh > 23 || mm > 59 {
		return time.Time{}, fmt.Errorf("%w: time %q", errBadClock, hhmm)
	}

	t := time.Date(year, time.Month(m), dd, hh, mm, 0, 0, loc)
	if t.Day() != dd {
		return time.Time{}, fmt.Errorf("%w: %s %d has no day %d", errBadClock, time.Month(m), year, dd)
	}
	return t, nil
}
