// Package app wires storage, the airport directory, the conversion service
// and the outer surfaces into a running application.
//
// New opens everything the config asks for, Run serves the HTTP API (and
// the NATS worker when configured) until the context ends, and Close
// releases the storage. Tests inject a store with WithStore.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"billete/internal/airports"
	"billete/internal/api"
	"billete/internal/config"
	"billete/internal/convert"
	"billete/internal/feed"
	"billete/internal/logger"
	"billete/internal/metrics"
	"billete/internal/pnr"
	"billete/internal/resilience"
	"billete/internal/storage"
)

// App owns the subsystems built from one Config.
type App struct {
	cfg      *config.Config
	log      logger.Logger
	registry *prometheus.Registry
	now      func() time.Time
	noLog    bool

	DB        *storage.DB
	Metrics   *metrics.Metrics
	Directory *airports.Directory
	Service   *convert.Service
}

// Option configures New.
type Option func(*App)

// WithStore uses db instead of opening the configured backends.
func WithStore(db *storage.DB) Option {
	return func(a *App) { a.DB = db }
}

// WithClock sets the clock used for year inference and history timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithoutHistory leaves conversions out of the history log.
func WithoutHistory() Option {
	return func(a *App) { a.noLog = true }
}

// New builds the application. The caller must Close it.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.NewMetrics(cfg.Server.MetricsNamespace, a.registry)

	if a.DB == nil {
		db, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.DB = db
	}
	log.Info("storage ready",
		"postgres", cfg.Storage.UsesPostgres(),
		"archive", a.DB.Archived(),
	)

	dirOpts := []airports.Option{
		airports.WithLogger(log.With("component", "airports")),
		airports.WithMetrics(a.Metrics),
	}
	if ac := cfg.Airports; ac.LookupURL != "" {
		breaker := resilience.New(resilience.Config{
			Name:         "airport-lookup",
			MaxFailures:  ac.BreakerFailures,
			ResetTimeout: ac.BreakerReset,
			Logger:       log,
		})
		dirOpts = append(dirOpts,
			airports.WithLookup(airports.NewHTTPLookup(ac.LookupURL, ac.LookupTimeout), breaker),
			airports.WithTimeout(ac.LookupTimeout),
		)
		log.Info("airport network lookup enabled", "url", ac.LookupURL)
	}
	a.Directory = airports.New(a.DB, dirOpts...)

	engine := pnr.New(a.Directory, a.Directory,
		pnr.WithLogger(log.With("component", "pnr")),
		pnr.WithClock(a.now),
	)
	var history storage.HistoryStore = a.DB
	if a.noLog {
		history = nil
	}
	l := cfg.Luggage
	a.Service = convert.NewService(engine, history,
		convert.WithLogger(log.With("component", "convert")),
		convert.WithMetrics(a.Metrics),
		convert.WithLuggage(convert.Luggage{
			HandCount:  l.HandCount,
			HandWeight: l.HandWeight,
			PackCount:  l.PackCount,
			PackWeight: l.PackWeight,
		}),
		convert.WithClock(a.now),
	)

	return a, nil
}

// Registry is the prometheus registry behind /metrics.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Server returns the HTTP API server.
func (a *App) Server() *api.Server {
	sc := a.cfg.Server
	return api.NewServer(a.Service, a.Directory, a.registry, api.Config{
		Addr:           sc.Addr,
		APIKeys:        sc.APIKeys,
		CORSOrigins:    sc.CORSOrigins,
		ReadTimeout:    sc.ReadTimeout,
		WriteTimeout:   sc.WriteTimeout,
		RequestTimeout: sc.RequestTimeout,
	}, a.log.With("component", "api"))
}

// Run serves the API, and the NATS worker when a URL is configured, until
// ctx is cancelled or either fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := a.Server()
	g.Go(func() error { return srv.Run(ctx) })

	if nc := a.cfg.NATS; nc.URL != "" {
		w := feed.NewWorker(a.Service, feed.Config{
			URL:     nc.URL,
			Subject: nc.Subject,
			Queue:   nc.Queue,
			Timeout: a.cfg.Server.RequestTimeout,
		}, a.log.With("component", "feed"))
		g.Go(func() error { return w.Run(ctx) })
	}

	return g.Wait()
}

// Close releases the storage.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
