// Package config defines the client configuration and provides validation
// helpers.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PREDICTCTL_* environment
// variables.
type Config struct {
	API      APIConfig     `toml:"api"`
	Session  SessionConfig `toml:"session"`
	Trading  TradingConfig `toml:"trading"`
	LogLevel string        `toml:"log_level"`
}

// APIConfig holds the remote service endpoints.
type APIConfig struct {
	BaseURL string   `toml:"base_url"`
	WsURL   string   `toml:"ws_url"`
	Timeout duration `toml:"timeout"`
}

// SessionConfig holds the token storage location.
type SessionConfig struct {
	TokenPath string `toml:"token_path"`
}

// TradingConfig holds wager validation parameters.
type TradingConfig struct {
	// MinStakePaise is the smallest stake accepted by the local
	// pre-submission check, in paise.
	MinStakePaise int64 `toml:"min_stake_paise"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "30s", "1m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	tokenPath := ".predictctl/token"
	if home, err := os.UserHomeDir(); err == nil {
		tokenPath = filepath.Join(home, ".predictctl", "token")
	}
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000/api/v1",
			WsURL:   "",
			Timeout: duration{30 * time.Second},
		},
		Session: SessionConfig{
			TokenPath: tokenPath,
		},
		Trading: TradingConfig{
			MinStakePaise: 100,
		},
		LogLevel: "warn",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.API.BaseURL == "" {
		errs = append(errs, "api: base_url must not be empty")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api: base_url %q is not an absolute URL", c.API.BaseURL))
	}

	if c.API.WsURL != "" {
		if u, err := url.Parse(c.API.WsURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			errs = append(errs, fmt.Sprintf("api: ws_url %q must be a ws:// or wss:// URL", c.API.WsURL))
		}
	}

	if c.API.Timeout.Duration <= 0 {
		errs = append(errs, "api: timeout must be positive")
	}

	if c.Session.TokenPath == "" {
		errs = append(errs, "session: token_path must not be empty")
	}

	if c.Trading.MinStakePaise < 1 {
		errs = append(errs, "trading: min_stake_paise must be >= 1")
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
