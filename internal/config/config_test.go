package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("MATCHING_MAX_DETOUR_KM", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5.0, cfg.Matching.MaxDetourKm)
	assert.Equal(t, 40.0, cfg.Matching.AverageSpeedKmh)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoder.BaseURL)
	assert.True(t, cfg.Database.RunMigrations)
	assert.False(t, cfg.NewRelic.Enabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("NEW_RELIC_ENABLED", "true")
	t.Setenv("MATCHING_MAX_DETOUR_KM", "2.5")
	t.Setenv("TRACKING_LOCATION_TTL", "1m")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.NewRelic.Enabled)
	assert.Equal(t, 2.5, cfg.Matching.MaxDetourKm)
	assert.Equal(t, time.Minute, cfg.Tracking.LocationTTL)
}
