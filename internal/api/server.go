// Package api provides the REST API for booking-code conversion, the
// history log and the airport directory.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"billete/internal/airports"
	"billete/internal/convert"
	"billete/internal/logger"
	"billete/internal/pnr"
	"billete/internal/storage"
)

// maxBodyBytes bounds request bodies. A long PNR dump is a few kilobytes.
const maxBodyBytes = 1 << 20

// AirportDirectory is the part of airports.Directory the API needs.
type AirportDirectory interface {
	List(ctx context.Context) ([]storage.Airport, error)
	Put(ctx context.Context, a storage.Airport) error
	Delete(ctx context.Context, code string) error
	Search(ctx context.Context, query string, limit int) ([]airports.Match, error)
}

// Config holds configuration for the API server.
type Config struct {
	Addr           string
	APIKeys        []string // auth is enabled when any key is set
	CORSOrigins    []string // empty allows any origin
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
}

// Server serves the REST API.
type Server struct {
	svc      *convert.Service
	airports AirportDirectory
	gatherer prometheus.Gatherer
	log      logger.Logger
	cfg      Config
	apiKeys  map[string]bool
	origins  map[string]bool
}

// NewServer creates a server. airports and gatherer may be nil, which
// disables the airport routes and /metrics respectively.
func NewServer(svc *convert.Service, dir AirportDirectory, gatherer prometheus.Gatherer, cfg Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys[k] = true
		}
	}
	origins := make(map[string]bool)
	for _, o := range cfg.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}

	return &Server{
		svc:      svc,
		airports: dir,
		gatherer: gatherer,
		log:      log,
		cfg:      cfg,
		apiKeys:  keys,
		origins:  origins,
	}
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	r.Use(s.corsMiddleware)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required).
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			if len(s.apiKeys) > 0 {
				r.Use(s.authMiddleware)
			}

			r.Post("/process", s.handleProcess)

			r.Get("/history", s.handleListHistory)
			r.Delete("/history", s.handleClearHistory)
			r.Get("/stats", s.handleStats)

			if s.airports != nil {
				r.Get("/airports", s.handleListAirports)
				r.Post("/airports", s.handlePutAirport)
				r.Get("/airports/search", s.handleSearchAirports)
				r.Delete("/airports/{code}", s.handleDeleteAirport)
			}
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", s.cfg.Addr, "auth", len(s.apiKeys) > 0)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// corsMiddleware adds CORS headers for browser access.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.origins) > 0 {
			origin = r.Header.Get("Origin")
			if !s.origins[origin] {
				origin = ""
			}
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		// Fall back to query parameter (for simple testing).
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req convert.Request
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.svc.Convert(r.Context(), req)
	if err != nil {
		var docErr *pnr.DocumentError
		switch {
		case errors.Is(err, convert.ErrEmptyCode):
			writeError(w, http.StatusBadRequest, "No code provided")
		case errors.As(err, &docErr):
			writeError(w, http.StatusUnprocessableEntity, docErr.Error())
		default:
			s.log.Error("process failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HistoryResponse is one history row as returned by the API.
type HistoryResponse struct {
	ID            int64  `json:"id"`
	Timestamp     string `json:"timestamp"`
	Code          string `json:"code"`
	Result        string `json:"result"`
	PassengerInfo string `json:"passenger_info"`
	RouteInfo     string `json:"route_info"`
}

func historyToResponse(e storage.HistoryEntry) HistoryResponse {
	return HistoryResponse{
		ID:            e.ID,
		Timestamp:     e.Timestamp.Local().Format("2006-01-02 15:04:05"),
		Code:          e.Code,
		Result:        e.Result,
		PassengerInfo: e.PassengerInfo,
		RouteInfo:     e.RouteInfo,
	}
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.svc.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyToResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearHistory(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListAirports(w http.ResponseWriter, r *http.Request) {
	list, err := s.airports.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []storage.Airport{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePutAirport(w http.ResponseWriter, r *http.Request) {
	var a storage.Airport
	if !decodeBody(w, r, &a) {
		return
	}

	if err := s.airports.Put(r.Context(), a); err != nil {
		if errors.Is(err, airports.ErrInvalidAirport) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.Code = storage.NormalizeCode(a.Code)
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleDeleteAirport(w http.ResponseWriter, r *http.Request) {
	code := storage.NormalizeCode(chi.URLParam(r, "code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := s.airports.Delete(r.Context(), code); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Airport not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "code": code})
}

func (s *Server) handleSearchAirports(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	matches, err := s.airports.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if matches == nil {
		matches = []airports.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// Helper functions.

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
