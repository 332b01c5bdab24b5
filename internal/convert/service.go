// Package convert wraps the PNR engine with the luggage footer, the
// history log and metrics. Every outer surface goes through a Service.
package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"billete/internal/logger"
	"billete/internal/metrics"
	"billete/internal/pnr"
	"billete/internal/storage"
)

// ErrEmptyCode is returned for a request without booking-code text.
var ErrEmptyCode = errors.New("no code provided")

// Response is the result of one conversion.
type Response struct {
	Result        string             `json:"result"`
	Passengers    []pnr.Passenger    `json:"passengers"`
	Segments      []pnr.Segment      `json:"segments"`
	Layovers      []pnr.LayoverEvent `json:"layovers"`
	Unmatched     []pnr.Metadata     `json:"unmatched,omitempty"`
	Dropped       int                `json:"dropped"`
	Route         string             `json:"route"`
	PassengerInfo string             `json:"passenger_info"`
	HistoryID     int64              `json:"history_id,omitempty"`
}

// Stats summarises recent activity.
type Stats struct {
	Today     int                  `json:"today"`
	TopRoutes []storage.RouteCount `json:"top_routes,omitempty"`
}

type routeRanker interface {
	TopRoutes(ctx context.Context, since time.Time, limit int) ([]storage.RouteCount, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics records conversions on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLuggage sets the default allowance.
func WithLuggage(l Luggage) Option {
	return func(s *Service) { s.luggage = l }
}

// WithClock sets the clock used for history timestamps and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is safe for concurrent use.
type Service struct {
	engine  *pnr.Engine
	history storage.HistoryStore
	metrics *metrics.Metrics
	log     logger.Logger
	luggage Luggage
	now     func() time.Time
}

// NewService creates a Service. history may be nil, in which case nothing is
// recorded.
func NewService(engine *pnr.Engine, history storage.HistoryStore, opts ...Option) *Service {
	s := &Service{
		engine:  engine,
		history: history,
		log:     logger.Nop(),
		luggage: DefaultLuggage(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Convert processes one request and records it in the history. A history
// failure is logged and does not fail the conversion.
func (s *Service) Convert(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, ErrEmptyCode
	}

	start := time.Now()
	res, err := s.engine.Process(ctx, req.Code)
	if err != nil {
		s.countError("process")
		return nil, err
	}

	resp := &Response{
		Result:        res.Text + req.Luggage(s.luggage).Footer(),
		Passengers:    res.Passengers,
		Segments:      res.Segments,
		Layovers:      res.Layovers,
		Unmatched:     res.Unmatched,
		Dropped:       res.Dropped,
		Route:         Route(res.Segments),
		PassengerInfo: PassengerSummary(res.Passengers),
	}
	s.observe(res, time.Since(start))

	if s.history != nil {
		id, err := s.history.AddHistory(ctx, storage.HistoryEntry{
			Timestamp:     s.now(),
			Code:          req.Code,
			Result:        resp.Result,
			PassengerInfo: resp.PassengerInfo,
			RouteInfo:     resp.Route,
		})
		switch {
		case err == nil:
			resp.HistoryID = id
		case errors.Is(err, storage.ErrArchive):
			resp.HistoryID = id
			s.log.Warn("history archive write failed", "id", id, "error", err)
			s.countError("archive")
		default:
			s.log.Error("history write failed", "error", err)
			s.countError("history")
		}
	}

	return resp, nil
}

// Trace runs the engine with a per-line account. Nothing is recorded.
func (s *Service) Trace(ctx context.Context, code string) (*pnr.Result, []pnr.LineTrace, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil, ErrEmptyCode
	}
	return s.engine.Trace(ctx, code)
}

// History returns the newest entries first.
func (s *Service) History(ctx context.Context, limit int) ([]storage.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListHistory(ctx, limit)
}

// ClearHistory deletes the history log.
func (s *Service) ClearHistory(ctx context.Context) error {
	if s.history == nil {
		return nil
	}
	return s.history.ClearHistory(ctx)
}

// Stats counts today's conversions (local midnight onwards) and, with an
// archive attached, the top routes of the last 30 days.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if s.history == nil {
		return st, nil
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	n, err := s.history.CountHistorySince(ctx, midnight)
	if err != nil {
		return st, fmt.Errorf("count today: %w", err)
	}
	st.Today = n

	if r, ok := s.history.(routeRanker); ok {
		top, err := r.TopRoutes(ctx, now.AddDate(0, 0, -30), 10)
		if err != nil {
			s.log.Warn("top routes unavailable", "error", err)
			s.countError("archive")
		}
		st.TopRoutes = top
	}
	return st, nil
}

func (s *Service) observe(res *pnr.Result, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.Conversions.Inc()
	s.metrics.ProcessingTime.Observe(elapsed.Seconds())
	s.metrics.DroppedLines.Add(float64(res.Dropped))
	s.metrics.UnmatchedMetadata.Add(float64(len(res.Unmatched)))
	for _, seg := range res.Segments {
		if seg.Duration.Status == pnr.DurationDegraded {
			s.metrics.DegradedDurations.Inc()
		}
	}
}

func (s *Service) countError(op string) {
	if s.metrics != nil {
		s.metrics.ErrorsCount.WithLabelValues(op).Inc()
	}
}

// PassengerSummary joins passenger names with ", ".
func PassengerSummary(ps []pnr.Passenger) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// Route is the compact code path: "MAD-PEK" for one segment,
// "MAD-PEK-MAD" for a round trip.
func Route(segs []pnr.Segment) string {
	if len(segs) == 0 {
		return ""
	}
	stops := make([]string, 0, len(segs)+1)
	stops = append(stops, segs[0].OriginCode)
	for _, s := range segs {
		stops = append(stops, s.DestCode)
	}
	return strings.Join(stops, "-")
}
