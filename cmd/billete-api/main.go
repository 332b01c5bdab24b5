// Package main provides billete-api, the HTTP server for booking-code
// conversion.
//
// Usage:
//
//	billete-api [options]
//
// Options:
//
//	-config PATH       YAML configuration file (optional)
//	-addr ADDR         listen address (default :5000, env: PORT)
//	-log-level LEVEL   debug, info, warn or error (env: LOG_LEVEL)
//	-api-keys KEYS     comma-separated API keys; enables auth (env: API_KEYS)
//
// Storage is SQLite at billete.db unless DATABASE_URL (or POSTGRES_HOST)
// points at PostgreSQL. CLICKHOUSE_ENABLED=true tees history to ClickHouse.
// NATS_URL starts a queue worker on NATS_SUBJECT next to the HTTP server.
//
// API Endpoints:
//
//	GET    /api/v1/health
//	POST   /api/v1/process          {"code": "...", "hand_count": 1, ...}
//	GET    /api/v1/history?limit=N
//	DELETE /api/v1/history
//	GET    /api/v1/stats
//	GET    /api/v1/airports
//	POST   /api/v1/airports         {"code": "MAD", "name": "马德里", "tz": "Europe/Madrid"}
//	DELETE /api/v1/airports/{code}
//	GET    /api/v1/airports/search?q=madrid
//	GET    /metrics
//
// Authentication:
//
//	When API keys are configured, requests other than /health and /metrics
//	must include a key via:
//	  - X-API-Key header
//	  - Authorization: Bearer <key> header
//	  - ?api_key=<key> query parameter
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"billete/internal/app"
	"billete/internal/config"
	"billete/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "YAML configuration file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (overrides config)")
	apiKeys := flag.String("api-keys", "", "Comma-separated list of valid API keys")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "billete-api: %v\n", err)
		return 1
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Server.LogLevel = config.LogLevel(*logLevel)
	}
	if *apiKeys != "" {
		cfg.Server.APIKeys = strings.Split(*apiKeys, ",")
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "billete-api: %v\n", err)
		return 1
	}

	log, err := logger.New(string(cfg.Server.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "billete-api: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise application", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Warn("storage close error", "error", err)
		}
	}()

	log.Info("billete-api starting",
		"addr", cfg.Server.Addr,
		"auth", len(cfg.Server.APIKeys) > 0,
		"nats", cfg.NATS.URL != "",
	)

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("run error", "error", err)
		return 1
	}
	log.Info("goodbye")
	return 0
}
