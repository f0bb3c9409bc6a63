package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// ClinicTimezone is the single IANA timezone all civil dates are
	// interpreted in. Multi-timezone booking is not supported.
	ClinicTimezone string

	// Slot generation parameters.
	SlotStepMinutes int
	MinLeadTime     time.Duration

	// Availability cache tuning. Short TTL: availability changes on every
	// booking, so staleness must stay within seconds.
	CacheTTL      time.Duration
	CacheCapacity int

	// Heatmap computation.
	HeatmapMaxDays     int
	HeatmapWorkerCount int
	DayComputeDeadline time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		ClinicTimezone:     getEnv("CLINIC_TIMEZONE", "Europe/Amsterdam"),
		SlotStepMinutes:    getEnvAsInt("SLOT_STEP_MINUTES", 15),
		MinLeadTime:        getEnvAsDuration("MIN_LEAD_TIME", time.Hour),
		CacheTTL:           getEnvAsDuration("AVAILABILITY_CACHE_TTL", 30*time.Second),
		CacheCapacity:      getEnvAsInt("AVAILABILITY_CACHE_CAPACITY", 512),
		HeatmapMaxDays:     getEnvAsInt("HEATMAP_MAX_DAYS", 92),
		HeatmapWorkerCount: getEnvAsInt("HEATMAP_WORKER_COUNT", 4),
		DayComputeDeadline: getEnvAsDuration("DAY_COMPUTE_DEADLINE", 5*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
