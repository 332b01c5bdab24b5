package pnr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"billete/internal/logger"
)

// NameResolver maps an IATA code onto a display name. It must not fail;
// unresolved codes come back verbatim (or empty, which means the same).
type NameResolver interface {
	Resolve(ctx context.Context, code string) string
}

// ErrEmptyDocument is returned when the input holds no records at all.
var ErrEmptyDocument = errors.New("empty booking code")

// DocumentError reports that a whole document could not be processed.
type DocumentError struct {
	Msg string
	Err error
}

func (e *DocumentError) Error() string { return "pnr: " + e.Msg }
func (e *DocumentError) Unwrap() error { return e.Err }

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger (default: discard).
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the clock whose year seeds the calendar.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine runs the PNR pipeline. Its fields are set once in New, so one
// Engine may serve concurrent Process calls.
type Engine struct {
	names NameResolver
	zones TimezoneLookup
	now   func() time.Time
	log   logger.Logger
}

// New creates an Engine. Either capability may be nil: names then fall back
// to the code and every zone to UTC.
func New(names NameResolver, zones TimezoneLookup, opts ...Option) *Engine {
	e := &Engine{
		names: names,
		zones: zones,
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LineTrace records what happened to one logical line.
type LineTrace struct {
	Index   int    `json:"index"`
	Line    string `json:"line"`
	Kind    Kind   `json:"kind"`
	Outcome string `json:"outcome"`
}

// Process runs the full pipeline over raw booking-code text.
func (e *Engine) Process(ctx context.Context, raw string) (*Result, error) {
	return e.run(ctx, raw, nil)
}

// Trace runs the pipeline and also returns a per-line account of the
// classification and of any line that was dropped.
func (e *Engine) Trace(ctx context.Context, raw string) (*Result, []LineTrace, error) {
	var traces []LineTrace
	res, err := e.run(ctx, raw, &traces)
	return res, traces, err
}

func (e *Engine) run(ctx context.Context, raw string, traces *[]LineTrace) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("document processing failed", "panic", r)
			res, err = nil, &DocumentError{Msg: fmt.Sprintf("unexpected failure: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := Reflow(raw)
	if len(lines) == 0 {
		return nil, &DocumentError{Msg: ErrEmptyDocument.Error(), Err: ErrEmptyDocument}
	}

	res = &Result{}
	var parsed []ParsedSegment
	st := newClassifierState()

	for i, line := range lines {
		tokens := strings.Fields(line)
		var kind Kind
		kind, st = classify(line, tokens, st)
		outcome := "ok"

		switch kind {
		case KindPassenger:
			res.Passengers = appendPassengers(res.Passengers, line)

		case KindDocument:
			passport, ok := extractPassport(tokens)
			if !ok {
				outcome = "no passport field"
				break
			}
			var um *Metadata
			res.Passengers, um = attach(res.Passengers, "passport", passport, line)
			if um != nil {
				res.Unmatched = append(res.Unmatched, *um)
				outcome = "unmatched passport"
			}

		case KindTicket:
			ticket, ok := extractTicket(tokens)
			if !ok {
				outcome = "no ticket field"
				break
			}
			var um *Metadata
			res.Passengers, um = attach(res.Passengers, "ticket", ticket, line)
			if um != nil {
				res.Unmatched = append(res.Unmatched, *um)
				outcome = "unmatched ticket"
			}

		case KindFlight:
			seg, perr := parseSegment(ctx, tokens, e.names)
			if perr != nil {
				e.log.Debug("dropping flight-like line", "line", line, "error", perr)
				res.Dropped++
				outcome = "dropped: " + perr.Error()
				break
			}
			parsed = append(parsed, seg)

		default:
			outcome = "ignored"
		}

		if traces != nil {
			*traces = append(*traces, LineTrace{Index: i, Line: line, Kind: kind, Outcome: outcome})
		}
	}

	cal := newCalendar(e.now().Year())
	segments := make([]Segment, len(parsed))
	for i, p := range parsed {
		year := cal.assign(p.Month)
		d := computeDuration(e.zones, p, year)
		if d.Status == DurationDegraded {
			e.log.Warn("duration degraded", "flight", p.FlightID, "origin", p.OriginCode, "dest", p.DestCode, "error", d.Err)
		}
		segments[i] = p.finalize(year, d)
	}

	res.Layovers = detectLayovers(segments)
	for _, ev := range res.Layovers {
		if ev.Anomaly {
			e.log.Warn("layover gap clamped", "segment", ev.SegmentIndex, "place", ev.Place)
		}
	}
	res.Segments = markReturns(segments, res.Layovers)
	res.Text = Render(res.Passengers, res.Segments, res.Layovers)

	return res, nil
}
