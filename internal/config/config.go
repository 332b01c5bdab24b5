// Package config provides the configuration schema and loader for the
// billete commands.
package config

import (
	"time"

	"billete/internal/storage"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  storage.Config `yaml:"storage"`
	NATS     NATSConfig     `yaml:"nats"`
	Airports AirportsConfig `yaml:"airports"`
	Luggage  LuggageConfig  `yaml:"luggage"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr             string        `yaml:"addr"`
	LogLevel         LogLevel      `yaml:"log_level"`
	APIKeys          []string      `yaml:"api_keys"`
	CORSOrigins      []string      `yaml:"cors_origins"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	MetricsNamespace string        `yaml:"metrics_namespace"`
}

// NATSConfig configures the queue worker. An empty URL disables it.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Queue   string `yaml:"queue"`
}

// AirportsConfig configures the airport directory's network fallback.
// An empty LookupURL disables it.
type AirportsConfig struct {
	LookupURL       string        `yaml:"lookup_url"`
	LookupTimeout   time.Duration `yaml:"lookup_timeout"`
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerReset    time.Duration `yaml:"breaker_reset"`
}

// LuggageConfig holds the allowance printed under every itinerary when the
// request does not say otherwise.
type LuggageConfig struct {
	HandCount  int `yaml:"hand_count"`
	HandWeight int `yaml:"hand_weight"`
	PackCount  int `yaml:"pack_count"`
	PackWeight int `yaml:"pack_weight"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             ":5000",
			LogLevel:         LogInfo,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			RequestTimeout:   15 * time.Second,
			MetricsNamespace: "billete",
		},
		Storage: storage.DefaultConfig(),
		NATS: NATSConfig{
			Subject: "billete.convert",
			Queue:   "billete",
		},
		Airports: AirportsConfig{
			LookupTimeout:   3 * time.Second,
			BreakerFailures: 5,
			BreakerReset:    30 * time.Second,
		},
		Luggage: LuggageConfig{
			HandCount:  1,
			HandWeight: 8,
			PackCount:  2,
			PackWeight: 23,
		},
	}
}
