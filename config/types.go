package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so it can be written as a human readable
// string ("5m", "30s") in both TOML and YAML files.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	raw := string(text)
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses human readable duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be string")
	}
	return d.UnmarshalText([]byte(value.Value))
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Storage selects the state backend.
type Storage struct {
	Backend string `toml:"Backend" yaml:"backend"`
}

// Lottery holds the lottery parameters applied at startup.
type Lottery struct {
	// Owner is the bech32 address that owns the lottery.
	Owner string `toml:"Owner" yaml:"owner"`
	// TicketPrice is expressed in base units as a decimal string.
	TicketPrice  string   `toml:"TicketPrice" yaml:"ticket_price"`
	FeeBps       uint32   `toml:"FeeBps" yaml:"fee_bps"`
	DrawCooldown Duration `toml:"DrawCooldown" yaml:"draw_cooldown"`
	MaxManagers  int      `toml:"MaxManagers" yaml:"max_managers"`
	// Randomness is "crypto" or "beacon".
	Randomness string `toml:"Randomness" yaml:"randomness"`
	BeaconSeed string `toml:"BeaconSeed" yaml:"beacon_seed"`
}

// Token configures the in-process ledger and its faucet.
type Token struct {
	Symbol         string   `toml:"Symbol" yaml:"symbol"`
	FaucetEnabled  bool     `toml:"FaucetEnabled" yaml:"faucet_enabled"`
	FaucetLimit    string   `toml:"FaucetLimit" yaml:"faucet_limit"`
	FaucetRequests uint32   `toml:"FaucetRequests" yaml:"faucet_requests"`
	FaucetEpoch    Duration `toml:"FaucetEpoch" yaml:"faucet_epoch"`
}

// Auth configures bearer token verification.
type Auth struct {
	HMACSecret  string   `toml:"HMACSecret" yaml:"hmac_secret"`
	Issuer      string   `toml:"Issuer" yaml:"issuer"`
	Audience    string   `toml:"Audience" yaml:"audience"`
	AllowedSkew Duration `toml:"AllowedSkew" yaml:"allowed_skew"`
}

// RateLimit bounds requests per caller.
type RateLimit struct {
	RequestsPerMinute int `toml:"RequestsPerMinute" yaml:"requests_per_minute"`
	Burst             int `toml:"Burst" yaml:"burst"`
}

// History configures the draw history database.
type History struct {
	// Driver is "sqlite" or "postgres". Empty disables history.
	Driver string `toml:"Driver" yaml:"driver"`
	DSN    string `toml:"DSN" yaml:"dsn"`
}

// Scheduler configures automatic draws.
type Scheduler struct {
	Enabled  bool     `toml:"Enabled" yaml:"enabled"`
	Manager  string   `toml:"Manager" yaml:"manager"`
	Interval Duration `toml:"Interval" yaml:"interval"`
}

// Log configures the optional rotated log file.
type Log struct {
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"max_size_mb"`
	MaxBackups int    `toml:"MaxBackups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"max_age_days"`
}

// Telemetry configures OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint" yaml:"endpoint"`
	Insecure bool   `toml:"Insecure" yaml:"insecure"`
	Headers  string `toml:"Headers" yaml:"headers"`
	Metrics  bool   `toml:"Metrics" yaml:"metrics"`
	Traces   bool   `toml:"Traces" yaml:"traces"`
}
