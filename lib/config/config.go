// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seatwise/boxoffice/payment"
	"github.com/seatwise/boxoffice/venue"
)

// Config is the complete boxoffice configuration.
type Config struct {
	Venue       VenueConfig       `yaml:"venue"`
	Reservation ReservationConfig `yaml:"reservation"`
	Updates     UpdatesConfig     `yaml:"updates"`
	Payment     PaymentConfig     `yaml:"payment"`
}

// VenueConfig locates the venue server.
type VenueConfig struct {
	// BaseURL is the HTTP root of the venue.
	// Default: http://127.0.0.1:8080
	BaseURL string `yaml:"base_url"`

	// PushURL is the websocket push endpoint. Empty derives it from
	// BaseURL (http→ws, https→wss, path /ws).
	PushURL string `yaml:"push_url"`

	// RequestTimeout bounds every boundary call. Default: 10s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Paths overrides individual endpoint paths.
	Paths venue.Paths `yaml:"paths"`
}

// ReservationConfig configures the reservation controller.
type ReservationConfig struct {
	// HoldTTL is the local expiry of a temporary hold. It should match
	// the venue's. Default: 5m
	HoldTTL time.Duration `yaml:"hold_ttl"`

	// Journal is the hold journal path. Empty disables journaling.
	// Default: ${HOME}/.cache/boxoffice/hold.cbor
	Journal string `yaml:"journal"`
}

// UpdatesConfig configures the push subscription.
type UpdatesConfig struct {
	// MaxBackoff caps the reconnect delay. Default: 30s
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// ResyncInterval is the minimum spacing of structure resyncs.
	// Default: 2s
	ResyncInterval time.Duration `yaml:"resync_interval"`

	// MaxMessageBytes limits a single push message. Default: 4 MiB
	MaxMessageBytes int64 `yaml:"max_message_bytes"`
}

// PaymentConfig configures payment input validation.
type PaymentConfig struct {
	// Validation is "require-all" (every field filled) or
	// "require-any" (at least one). Default: require-all
	Validation string `yaml:"validation"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Venue: VenueConfig{
			BaseURL:        "http://127.0.0.1:8080",
			RequestTimeout: 10 * time.Second,
			Paths:          venue.DefaultPaths(),
		},
		Reservation: ReservationConfig{
			HoldTTL: 5 * time.Minute,
			Journal: filepath.Join("${HOME}", ".cache", "boxoffice", "hold.cbor"),
		},
		Updates: UpdatesConfig{
			MaxBackoff:      30 * time.Second,
			ResyncInterval:  2 * time.Second,
			MaxMessageBytes: 4 << 20,
		},
		Payment: PaymentConfig{
			Validation: payment.RequireAll.String(),
		},
	}
}

// Load reads the file named by BOXOFFICE_CONFIG, or starts from
// Default when it is unset. Environment overrides are applied either
// way.
func Load() (*Config, error) {
	if path := os.Getenv("BOXOFFICE_CONFIG"); path != "" {
		return LoadFile(path)
	}
	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads path over Default, then applies environment
// overrides and variable expansion.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.finish(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if err := c.applyEnvironment(); err != nil {
		return err
	}
	c.Reservation.Journal = expandVars(c.Reservation.Journal, map[string]string{"HOME": os.Getenv("HOME")})
	return nil
}

// applyEnvironment applies BOXOFFICE_* overrides.
func (c *Config) applyEnvironment() error {
	if value := os.Getenv("BOXOFFICE_VENUE_URL"); value != "" {
		c.Venue.BaseURL = value
	}
	if value := os.Getenv("BOXOFFICE_PUSH_URL"); value != "" {
		c.Venue.PushURL = value
	}
	if value := os.Getenv("BOXOFFICE_JOURNAL"); value != "" {
		c.Reservation.Journal = value
	}
	if value := os.Getenv("BOXOFFICE_HOLD_TTL"); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("BOXOFFICE_HOLD_TTL: %w", err)
		}
		c.Reservation.HoldTTL = ttl
	}
	return nil
}

// PushURL returns the configured push endpoint or the one derived from
// the venue base URL.
func (c *Config) PushURL() (string, error) {
	if c.Venue.PushURL != "" {
		return c.Venue.PushURL, nil
	}
	parsed, err := url.Parse(c.Venue.BaseURL)
	if err != nil {
		return "", fmt.Errorf("venue.base_url: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("venue.base_url: cannot derive push URL from scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/ws"
	return parsed.String(), nil
}

// PaymentPolicy returns the parsed validation policy.
func (c *Config) PaymentPolicy() (payment.Policy, error) {
	return payment.ParsePolicy(c.Payment.Validation)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}, preferring vars over
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, fallback := parts[1], parts[2]
		if value := vars[name]; value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if err := checkURL(c.Venue.BaseURL, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("venue.base_url: %w", err))
	}
	if c.Venue.PushURL != "" {
		if err := checkURL(c.Venue.PushURL, "ws", "wss"); err != nil {
			errs = append(errs, fmt.Errorf("venue.push_url: %w", err))
		}
	}
	if c.Venue.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("venue.request_timeout must be positive"))
	}
	if c.Reservation.HoldTTL <= 0 {
		errs = append(errs, fmt.Errorf("reservation.hold_ttl must be positive"))
	}
	if c.Updates.MaxBackoff <= 0 {
		errs = append(errs, fmt.Errorf("updates.max_backoff must be positive"))
	}
	if c.Updates.ResyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("updates.resync_interval must be positive"))
	}
	if c.Updates.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("updates.max_message_bytes must be positive"))
	}
	if _, err := c.PaymentPolicy(); err != nil {
		errs = append(errs, fmt.Errorf("payment.validation: %w", err))
	}

	return errors.Join(errs...)
}

func checkURL(raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, scheme := range schemes {
		if parsed.Scheme == scheme {
			if parsed.Host == "" {
				return fmt.Errorf("%q has no host", raw)
			}
			return nil
		}
	}
	return fmt.Errorf("%q must use %s", raw, strings.Join(schemes, " or "))
}

// EnsureJournalDir creates the journal's parent directory.
func (c *Config) EnsureJournalDir() error {
	if c.Reservation.Journal == "" {
		return nil
	}
	directory := filepath.Dir(c.Reservation.Journal)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}
	return nil
}
