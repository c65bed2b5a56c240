// Package config loads server settings from the environment and flags.
package config

import (
    "flag"
    "fmt"
    "log/slog"
    "strings"
    "time"

    "github.com/caarlos0/env/v11"
)

// Config holds the server configuration.
type Config struct {
    HTTPAddr   string        `env:"TTT_HTTP_ADDR" envDefault:"localhost:8080"`
    LogLevel   string        `env:"TTT_LOG_LEVEL" envDefault:"info"`
    Seed       uint64        `env:"TTT_SEED"`
    Heartbeat  time.Duration `env:"TTT_HEARTBEAT" envDefault:"15s"`
    SessionTTL time.Duration `env:"TTT_SESSION_TTL" envDefault:"1h"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
    if err := env.Parse(target); err != nil {
        return fmt.Errorf("parse env: %w", err)
    }
    return nil
}

// Parse reads the environment, then lets flags in args override it.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
    var cfg Config
    if err := ParseEnv(&cfg); err != nil {
        return Config{}, err
    }

    fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
    fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
    fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "opponent random seed (0 picks one at startup)")
    fs.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "event stream heartbeat interval")
    fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "drop games idle for longer than this")
    if err := fs.Parse(args); err != nil {
        return Config{}, err
    }

    if _, err := cfg.Level(); err != nil {
        return Config{}, err
    }
    if cfg.Heartbeat <= 0 {
        return Config{}, fmt.Errorf("heartbeat must be positive, got %s", cfg.Heartbeat)
    }
    return cfg, nil
}

// Level maps LogLevel to a slog level.
func (c Config) Level() (slog.Level, error) {
    var lvl slog.Level
    if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
        return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.LogLevel, err)
    }
    return lvl, nil
}
