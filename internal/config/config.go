// Package config loads the YAML configuration file. Defaults are
// centralized here so the rest of the code can assume a well-formed
// config; flags in cmd/lumen override individual fields.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BackendKind selects which transport reaches the playback daemon.
type BackendKind string

const (
	// BackendWS is the production transport: the daemon's WebSocket
	// endpoint.
	BackendWS BackendKind = "ws"

	// BackendMPD adapts a local MPD server for development.
	BackendMPD BackendKind = "mpd"
)

// Config is the top-level YAML configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	MPD     MPDConfig     `yaml:"mpd"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig selects and tunes the daemon transport.
type BackendConfig struct {
	Kind      BackendKind `yaml:"kind"`
	WsURL     string      `yaml:"ws_url"`
	TimeoutMS int         `yaml:"timeout_ms"`
}

// MPDConfig applies when Backend.Kind is "mpd".
type MPDConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Kind:      BackendWS,
			WsURL:     "ws://127.0.0.1:3010/ws",
			TimeoutMS: 5000,
		},
		MPD: MPDConfig{
			Host: "localhost",
			Port: 6600,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults
// unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the wiring cannot act on.
func (c Config) Validate() error {
	switch c.Backend.Kind {
	case BackendWS:
		if c.Backend.WsURL == "" {
			return errors.New("backend.ws_url must be set for the ws backend")
		}
	case BackendMPD:
		if c.MPD.Host == "" {
			return errors.New("mpd.host must be set for the mpd backend")
		}
		if c.MPD.Port <= 0 || c.MPD.Port > 65535 {
			return fmt.Errorf("mpd.port %d out of range", c.MPD.Port)
		}
	default:
		return fmt.Errorf("unknown backend kind %q", c.Backend.Kind)
	}

	if c.Backend.TimeoutMS < 0 {
		return fmt.Errorf("backend.timeout_ms must not be negative")
	}
	return nil
}
