package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/aviate-labs/agent-go/principal"
)

const (
	// DefaultLedgerID is the SNS-1 ledger canister.
	DefaultLedgerID = "zfcdd-tqaaa-aaaaq-aaaga-cai"

	// DefaultICURL is the public Internet Computer boundary node.
	DefaultICURL = "https://ic0.app"

	// DefaultLogLevel keeps stderr quiet unless something is skipped or fails.
	DefaultLogLevel = "warn"
)

// Config holds all application configuration.
// Values come from command line flags, which fall back to environment variables.
type Config struct {
	// Ledger configuration
	LedgerID string
	ICURL    string

	// Logging configuration
	LogLevel string

	// Optional sinks; empty disables them
	NATSURL        string
	PushgatewayURL string
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		LedgerID: DefaultLedgerID,
		ICURL:    DefaultICURL,
		LogLevel: DefaultLogLevel,
	}
}

// Validate checks if the configuration is valid and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.LedgerID == "" {
		errs = append(errs, fmt.Errorf("LedgerID is required"))
	} else if _, err := principal.Decode(c.LedgerID); err != nil {
		errs = append(errs, fmt.Errorf("LedgerID %q is not a valid principal: %w", c.LedgerID, err))
	}

	if c.ICURL == "" {
		errs = append(errs, fmt.Errorf("ICURL is required"))
	} else if err := validateURL(c.ICURL); err != nil {
		errs = append(errs, fmt.Errorf("ICURL: %w", err))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if c.NATSURL != "" {
		if err := validateURL(c.NATSURL); err != nil {
			errs = append(errs, fmt.Errorf("NATSURL: %w", err))
		}
	}

	if c.PushgatewayURL != "" {
		if err := validateURL(c.PushgatewayURL); err != nil {
			errs = append(errs, fmt.Errorf("PushgatewayURL: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// LedgerPrincipal returns the decoded ledger id. Call Validate first.
func (c *Config) LedgerPrincipal() (principal.Principal, error) {
	p, err := principal.Decode(c.LedgerID)
	if err != nil {
		return principal.Principal{}, fmt.Errorf("cannot parse principal from %s: %w", c.LedgerID, err)
	}
	return p, nil
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(levelStr string) (slog.Level, error) {
	switch levelStr {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", levelStr)
	}
}

// NewLogger builds the JSON logger used for diagnostics.
func NewLogger(w io.Writer, levelStr string) *slog.Logger {
	// Validate has already rejected unknown levels; fall back to warn anyway.
	level, _ := ParseLogLevel(levelStr)
	opts := &slog.HandlerOptions{
		Level: level,
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url %q: scheme and host are required", raw)
	}
	return nil
}
