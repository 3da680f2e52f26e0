package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "WALK", cfg.DefaultMode)
	assert.Equal(t, 4.8, cfg.DefaultWalkSpeedKmh)
	assert.Equal(t, 15.0, cfg.DefaultBikeSpeedKmh)
	assert.Equal(t, 3, cfg.NumItineraries)
	assert.Equal(t, 45.1885, cfg.MapCenterLat)
	assert.Equal(t, 5.7245, cfg.MapCenterLon)
	assert.Equal(t, 13, cfg.MapZoom)
	assert.Equal(t, 500*time.Millisecond, cfg.AddressDebounce)
	assert.Equal(t, 4*time.Second, cfg.NotificationTTL)
	assert.NoError(t, cfg.Validate())
}

func TestParseFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("NUM_ITINERARIES", "5")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://example.org")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5, cfg.NumItineraries)
	assert.Equal(t, []string{"http://localhost:3000", "https://example.org"}, cfg.Origins())
}

func TestValidateRejects(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"too many itineraries", func(c *Config) { c.NumItineraries = 6 }},
		{"unknown mode", func(c *Config) { c.DefaultMode = "BOAT" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"bad departure", func(c *Config) { c.DefaultDepartureTime = "8am" }},
		{"walk speed too high", func(c *Config) { c.DefaultWalkSpeedKmh = 40 }},
		{"center out of range", func(c *Config) { c.MapCenterLat = 100 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse()
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultDeparture(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	now := time.Date(2025, 3, 13, 21, 30, 0, 0, time.UTC)
	dep := cfg.DefaultDeparture(now)

	assert.Equal(t, "Europe/Paris", dep.Location().String())
	assert.Equal(t, 8, dep.Hour())
	assert.Equal(t, 0, dep.Minute())
	assert.Equal(t, 13, dep.Day())
}
