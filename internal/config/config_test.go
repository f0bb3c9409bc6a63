package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "Europe/Amsterdam", cfg.ClinicTimezone)
	assert.Equal(t, 15, cfg.SlotStepMinutes)
	assert.Equal(t, time.Hour, cfg.MinLeadTime)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 512, cfg.CacheCapacity)
	assert.Equal(t, 92, cfg.HeatmapMaxDays)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SLOT_STEP_MINUTES", "10")
	t.Setenv("MIN_LEAD_TIME", "30m")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("AVAILABILITY_CACHE_TTL", "45s")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 10, cfg.SlotStepMinutes)
	assert.Equal(t, 30*time.Minute, cfg.MinLeadTime)
	assert.True(t, cfg.RedisTLS)
	assert.Equal(t, 45*time.Second, cfg.CacheTTL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SLOT_STEP_MINUTES", "often")
	t.Setenv("MIN_LEAD_TIME", "soonish")
	t.Setenv("REDIS_TLS", "enabled")

	cfg := Load()

	assert.Equal(t, 15, cfg.SlotStepMinutes)
	assert.Equal(t, time.Hour, cfg.MinLeadTime)
	assert.False(t, cfg.RedisTLS)
}
