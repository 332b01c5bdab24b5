package pnr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"billete/internal/patterns"
)

// UnknownMonth marks a date token whose month code is not in the table.
const UnknownMonth = "-1"

var monthCodes = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

var monthNumbers = map[string]string{
	"JAN": "01", "FEB": "02", "MAR": "03", "APR": "04", "MAY": "05", "JUN": "06",
	"JUL": "07", "AUG": "08", "SEP": "09", "OCT": "10", "NOV": "11", "DEC": "12",
}

// Structural failures of a flight line. The line is dropped.
var (
	ErrNoDate      = errors.New("no date token")
	ErrShortRecord = errors.New("record too short")
	ErrNoCityPair  = errors.New("no origin/destination pair")
	ErrNoTimes     = errors.New("no departure/arrival times")
)

func containsMonth(s string) bool {
	for _, m := range monthCodes {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// monthNumber maps JAN..DEC onto "01".."12" and anything else onto UnknownMonth.
func monthNumber(code string) string {
	if n, ok := monthNumbers[code]; ok {
		return n
	}
	return UnknownMonth
}

// parseDateToken splits "10APR" into day "10" and month "04".
func parseDateToken(tok string) (day, month string) {
	if len(tok) < 2 {
		return tok, UnknownMonth
	}
	return tok[:2], monthNumber(tok[2:])
}

// parseSegment reads one flight line, e.g.
//
//	2 CA 908 L 10APR 3 MADPEK HK1 1 1310 0600+1 *1A/E*
func parseSegment(ctx context.Context, tokens []string, names NameResolver) (ParsedSegment, error) {
	dateIdx := -1
	for i, tok := range tokens {
		if containsMonth(tok) {
			dateIdx = i
			break
		}
	}
	if dateIdx == -1 {
		return ParsedSegment{}, ErrNoDate
	}

	pairIdx := dateIdx + 2
	if len(tokens) < 3 || pairIdx >= len(tokens) {
		return ParsedSegment{}, ErrShortRecord
	}

	pair := patterns.Tokens.ParseFormat("city_pair", tokens[pairIdx])
	if pair == nil {
		return ParsedSegment{}, fmt.Errorf("%w: %q", ErrNoCityPair, tokens[pairIdx])
	}
	origin := pair.Captures["origin"]
	dest := pair.Captures["dest"]

	timeIdx := -1
	for i := pairIdx + 1; i < len(tokens); i++ {
		if patterns.Tokens.ParseFormat("time", tokens[i]) != nil {
			timeIdx = i
			break
		}
	}
	if timeIdx == -1 || timeIdx+1 >= len(tokens) {
		return ParsedSegment{}, ErrNoTimes
	}
	dep := patterns.Tokens.ParseFormat("time", tokens[timeIdx])
	arr := patterns.Tokens.ParseFormat("time", tokens[timeIdx+1])
	if arr == nil {
		return ParsedSegment{}, fmt.Errorf("%w: arrival %q", ErrNoTimes, tokens[timeIdx+1])
	}

	rawStart := dep.Captures["hhmm"]
	rawEnd := arr.Captures["hhmm"]
	offset := 0
	if o := arr.GetCapture("offset", ""); o != "" {
		offset, _ = strconv.Atoi(o)
	}

	end := clock(rawEnd)
	if offset > 0 {
		end += "+" + strconv.Itoa(offset)
	}

	day, month := parseDateToken(tokens[dateIdx])

	return ParsedSegment{
		FlightID:   tokens[1] + tokens[2],
		OriginCode: origin,
		DestCode:   dest,
		OriginName: resolveName(ctx, names, origin),
		DestName:   resolveName(ctx, names, dest),
		Start:      clock(rawStart),
		End:        end,
		Month:      month,
		Day:        day,
		NextDay:    offset == 1,
		DayOffset:  offset,
		RawStart:   rawStart,
		RawEnd:     rawEnd,
	}, nil
}

// clock formats HHMM as HH:MM.
func clock(hhmm string) string {
	return hhmm[:2] + ":" + hhmm[2:]
}

func resolveName(ctx context.Context, names NameResolver, code string) string {
	if names == nil {
		return code
	}
	if name := names.Resolve(ctx, code); name != "" {
		return name
	}
	return code
}

func (p ParsedSegment) finalize(year int, d Duration) Segment {
	return Segment{ParsedSegment: p, Year: year, Duration: d}
}
