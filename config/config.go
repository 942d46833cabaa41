/*
Package config supplies company-level settings: the reservation hold TTL and
the default currency.

PURPOSE:
  The hold TTL and active currency are company configuration, not ambient
  global state. Config is resolved once per operation and passed as a value;
  core functions never read a singleton.

DEFAULTS AND CLAMPING:
  - Hold TTL: clamped to 1-120 minutes; absent/zero falls back to 3 minutes
  - Currency: absent falls back to "USD" (no forced currency change)

SOURCES:
  Load() reads the environment (HOLD_TTL_MINUTES, DEFAULT_CURRENCY); the
  server entry point loads a .env file first via godotenv. Tests construct
  Config values directly.
*/
package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultHoldTTLMinutes = 3
	MinHoldTTLMinutes     = 1
	MaxHoldTTLMinutes     = 120

	DefaultCurrency = "USD"
)

type Config struct {
	// HoldTTLMinutes is the configured reservation hold duration.
	// Zero means "not configured"; HoldTTL applies the default and clamp.
	HoldTTLMinutes int

	// Currency is the company's default currency code.
	Currency string
}

// HoldTTL returns the effective, clamped hold duration.
func (c Config) HoldTTL() time.Duration {
	minutes := c.HoldTTLMinutes
	if minutes == 0 {
		minutes = DefaultHoldTTLMinutes
	}
	if minutes < MinHoldTTLMinutes {
		minutes = MinHoldTTLMinutes
	}
	if minutes > MaxHoldTTLMinutes {
		minutes = MaxHoldTTLMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// DefaultCurrency returns the effective currency code.
func (c Config) DefaultCurrency() string {
	if c.Currency == "" {
		return DefaultCurrency
	}
	return c.Currency
}

// Source resolves the current company configuration. Implementations may
// consult a settings service; the resolved value is passed down per
// operation.
type Source interface {
	Resolve() Config
}

// Static is a Source backed by a fixed value.
type Static struct {
	Value Config
}

func (s Static) Resolve() Config { return s.Value }

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		HoldTTLMinutes: getenvInt("HOLD_TTL_MINUTES", 0),
		Currency:       getenv("DEFAULT_CURRENCY", ""),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
