// Package airports resolves IATA codes to display names and IANA zones.
//
// A Directory answers from, in order: its in-memory cache, the airport
// store, the built-in dataset, and an optional network lookup behind a
// circuit breaker. Unknown codes resolve to themselves and to no zone.
package airports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"billete/internal/logger"
	"billete/internal/metrics"
	"billete/internal/resilience"
	"billete/internal/storage"
)

// ErrInvalidAirport is returned by Put for rows that cannot be stored.
var ErrInvalidAirport = errors.New("invalid airport")

// Lookup sources, used as the metrics label.
const (
	SourceCache   = "cache"
	SourceStore   = "store"
	SourceOffline = "offline"
	SourceNetwork = "network"
	SourceMiss    = "miss"
)

// Option configures a Directory.
type Option func(*Directory)

// WithLookup enables the network fallback.
func WithLookup(l Lookup, b *resilience.Breaker) Option {
	return func(d *Directory) {
		d.lookup = l
		d.breaker = b
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Directory) { d.log = l }
}

// WithMetrics counts resolutions per source.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Directory) { d.metrics = m }
}

// WithTimeout bounds network lookups made from TimezoneFor, which has no
// caller context.
func WithTimeout(t time.Duration) Option {
	return func(d *Directory) { d.timeout = t }
}

// Directory is safe for concurrent use.
type Directory struct {
	store   storage.AirportStore
	offline map[string]Entry
	lookup  Lookup
	breaker *resilience.Breaker
	metrics *metrics.Metrics
	log     logger.Logger
	timeout time.Duration
	missTTL time.Duration
	now     func() time.Time

	mu     sync.RWMutex
	cache  map[string]storage.Airport
	misses map[string]time.Time
}

// New creates a Directory over store, which may be nil.
func New(store storage.AirportStore, opts ...Option) *Directory {
	d := &Directory{
		store:   store,
		offline: Offline(),
		log:     logger.Nop(),
		timeout: 3 * time.Second,
		missTTL: 10 * time.Minute,
		now:     time.Now,
		cache:   make(map[string]storage.Airport),
		misses:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.lookup != nil && d.breaker == nil {
		d.breaker = resilience.New(resilience.Config{Name: "airport-lookup", Logger: d.log})
	}
	return d
}

// Resolve returns the display name for code, or code itself.
func (d *Directory) Resolve(ctx context.Context, code string) string {
	if a, ok := d.find(ctx, code); ok && a.Name != "" {
		return a.Name
	}
	return code
}

// TimezoneFor returns the IANA zone for code.
func (d *Directory) TimezoneFor(code string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if a, ok := d.find(ctx, code); ok && a.Timezone != "" {
		return a.Timezone, true
	}
	return "", false
}

func (d *Directory) find(ctx context.Context, code string) (storage.Airport, bool) {
	code = storage.NormalizeCode(code)
	if code == "" {
		return storage.Airport{}, false
	}

	d.mu.RLock()
	a, ok := d.cache[code]
	missedAt, missed := d.misses[code]
	d.mu.RUnlock()
	if ok {
		d.count(SourceCache)
		return a, true
	}
	if missed && d.now().Sub(missedAt) < d.missTTL {
		d.count(SourceMiss)
		return storage.Airport{}, false
	}

	if a, ok := d.fromStore(ctx, code); ok {
		d.remember(a)
		d.count(SourceStore)
		return a, true
	}

	if e, ok := d.offline[code]; ok {
		a := storage.Airport{Code: e.Code, Name: e.Name, Timezone: e.Timezone}
		d.remember(a)
		d.count(SourceOffline)
		return a, true
	}

	a, ok, definite := d.fromNetwork(ctx, code)
	if ok {
		d.remember(a)
		d.count(SourceNetwork)
		return a, true
	}

	// Only definite answers are cached; failures to ask are the breaker's job.
	if definite {
		d.mu.Lock()
		d.misses[code] = d.now()
		d.mu.Unlock()
	}
	d.count(SourceMiss)
	return storage.Airport{}, false
}

// fromStore fills a missing zone from the built-in dataset.
func (d *Directory) fromStore(ctx context.Context, code string) (storage.Airport, bool) {
	if d.store == nil {
		return storage.Airport{}, false
	}
	a, err := d.store.GetAirport(ctx, code)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			d.log.Warn("airport store lookup failed", "code", code, "error", err)
		}
		return storage.Airport{}, false
	}
	if a.Timezone == "" {
		if e, ok := d.offline[code]; ok {
			a.Timezone = e.Timezone
		}
	}
	return *a, true
}

// fromNetwork asks the lookup service. definite reports whether a miss is a
// real answer (no lookup configured, or the service said not found) rather
// than a failure to ask.
func (d *Directory) fromNetwork(ctx context.Context, code string) (a storage.Airport, ok, definite bool) {
	if d.lookup == nil {
		return storage.Airport{}, false, true
	}

	var found storage.Airport
	var notFound bool
	err := d.breaker.Execute(func() error {
		a, err := d.lookup.Lookup(ctx, code)
		if errors.Is(err, storage.ErrNotFound) {
			notFound = true
			return nil
		}
		found = a
		return err
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			d.log.Debug("airport lookup skipped", "code", code, "error", err)
		} else {
			d.log.Warn("airport lookup failed", "code", code, "error", err)
			d.countError("airport_lookup")
		}
		return storage.Airport{}, false, false
	}
	if notFound {
		return storage.Airport{}, false, true
	}
	if found.Name == "" {
		found.Name = code
	}
	found.Code = code

	if d.store != nil {
		if err := d.store.UpsertAirport(ctx, found); err != nil {
			d.log.Warn("airport write-back failed", "code", code, "error", err)
		}
	}
	return found, true, false
}

func (d *Directory) remember(a storage.Airport) {
	d.mu.Lock()
	d.cache[a.Code] = a
	delete(d.misses, a.Code)
	d.mu.Unlock()
}

func (d *Directory) forget(code string) {
	d.mu.Lock()
	delete(d.cache, code)
	delete(d.misses, code)
	d.mu.Unlock()
}

func (d *Directory) count(source string) {
	if d.metrics != nil {
		d.metrics.LookupCalls.WithLabelValues(source).Inc()
	}
}

func (d *Directory) countError(op string) {
	if d.metrics != nil {
		d.metrics.ErrorsCount.WithLabelValues(op).Inc()
	}
}

// Put stores an airport and drops any cached answer for it.
func (d *Directory) Put(ctx context.Context, a storage.Airport) error {
	a.Code = storage.NormalizeCode(a.Code)
	if a.Code == "" || a.Name == "" {
		return fmt.Errorf("%w: code and name are required", ErrInvalidAirport)
	}
	if a.Timezone != "" {
		if _, err := time.LoadLocation(a.Timezone); err != nil {
			return fmt.Errorf("%w: zone %q: %v", ErrInvalidAirport, a.Timezone, err)
		}
	}
	if d.store == nil {
		return errors.New("airport store not configured")
	}
	if err := d.store.UpsertAirport(ctx, a); err != nil {
		return err
	}
	d.forget(a.Code)
	return nil
}

// Delete removes a stored airport. The built-in dataset still answers for
// the code afterwards.
func (d *Directory) Delete(ctx context.Context, code string) error {
	code = storage.NormalizeCode(code)
	if d.store == nil {
		return storage.ErrNotFound
	}
	if err := d.store.DeleteAirport(ctx, code); err != nil {
		return err
	}
	d.forget(code)
	return nil
}

// List returns the stored airports.
func (d *Directory) List(ctx context.Context) ([]storage.Airport, error) {
	if d.store == nil {
		return nil, nil
	}
	return d.store.ListAirports(ctx)
}
