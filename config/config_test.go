package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/booking-engine/config"
)

// =============================================================================
// HOLD TTL CLAMPING TESTS
// =============================================================================

func TestConfig_HoldTTL_Clamping(t *testing.T) {
	cases := []struct {
		name    string
		minutes int
		want    time.Duration
	}{
		{"not configured falls back to default", 0, 3 * time.Minute},
		{"below minimum clamps up", -5, time.Minute},
		{"minimum passes through", 1, time.Minute},
		{"typical value passes through", 15, 15 * time.Minute},
		{"maximum passes through", 120, 120 * time.Minute},
		{"above maximum clamps down", 500, 120 * time.Minute},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Config{HoldTTLMinutes: tc.minutes}
			assert.Equal(t, tc.want, cfg.HoldTTL())
		})
	}
}

func TestConfig_DefaultCurrency(t *testing.T) {
	assert.Equal(t, "USD", config.Config{}.DefaultCurrency())
	assert.Equal(t, "EUR", config.Config{Currency: "EUR"}.DefaultCurrency())
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("HOLD_TTL_MINUTES", "10")
	t.Setenv("DEFAULT_CURRENCY", "CAD")

	cfg := config.Load()
	assert.Equal(t, 10*time.Minute, cfg.HoldTTL())
	assert.Equal(t, "CAD", cfg.DefaultCurrency())
}

func TestLoad_GarbageTTLFallsBackToDefault(t *testing.T) {
	t.Setenv("HOLD_TTL_MINUTES", "soon")
	t.Setenv("DEFAULT_CURRENCY", "")

	cfg := config.Load()
	assert.Equal(t, 3*time.Minute, cfg.HoldTTL())
	assert.Equal(t, "USD", cfg.DefaultCurrency())
}

func TestStatic_ResolvesFixedValue(t *testing.T) {
	src := config.Static{Value: config.Config{HoldTTLMinutes: 7}}
	assert.Equal(t, 7*time.Minute, src.Resolve().HoldTTL())
}
