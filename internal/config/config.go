package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Geocoder GeocoderConfig
	Matching MatchingConfig
	Tracking TrackingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	RunMigrations bool
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration.
type LogConfig struct {
	ServiceName string
	Level       string
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// GeocoderConfig holds the reverse geocoder (Nominatim) configuration.
type GeocoderConfig struct {
	Enabled   bool
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// MatchingConfig holds the trip search and detour settings.
type MatchingConfig struct {
	SearchRadiusKm  float64
	MaxDetourKm     float64
	AverageSpeedKmh float64
	TripLockTTL     time.Duration
}

// TrackingConfig holds live location settings.
type TrackingConfig struct {
	LocationTTL time.Duration
}

// Load loads configuration from a local .env file (if any) and environment variables.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		Server: ServerConfig{
			Port:            cast.ToString(getOrDefault("SERVER_PORT", "8080")),
			ReadTimeout:     cast.ToDuration(getOrDefault("SERVER_READ_TIMEOUT", 10*time.Second)),
			WriteTimeout:    cast.ToDuration(getOrDefault("SERVER_WRITE_TIMEOUT", 10*time.Second)),
			ShutdownTimeout: cast.ToDuration(getOrDefault("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second)),
		},
		Database: DatabaseConfig{
			Host:          cast.ToString(getOrDefault("DB_HOST", "localhost")),
			Port:          cast.ToString(getOrDefault("DB_PORT", "5432")),
			User:          cast.ToString(getOrDefault("DB_USER", "postgres")),
			Password:      cast.ToString(getOrDefault("DB_PASSWORD", "postgres")),
			DBName:        cast.ToString(getOrDefault("DB_NAME", "rideshare")),
			SSLMode:       cast.ToString(getOrDefault("DB_SSLMODE", "disable")),
			MaxOpenConns:  cast.ToInt(getOrDefault("DB_MAX_OPEN_CONNS", 50)),
			MaxIdleConns:  cast.ToInt(getOrDefault("DB_MAX_IDLE_CONNS", 25)),
			RunMigrations: cast.ToBool(getOrDefault("DB_RUN_MIGRATIONS", true)),
		},
		Redis: RedisConfig{
			Addr:     cast.ToString(getOrDefault("REDIS_ADDR", "localhost:6379")),
			Password: cast.ToString(getOrDefault("REDIS_PASSWORD", "")),
			DB:       cast.ToInt(getOrDefault("REDIS_DB", 0)),
		},
		NewRelic: NewRelicConfig{
			AppName:    cast.ToString(getOrDefault("NEW_RELIC_APP_NAME", "rideshare-api")),
			LicenseKey: cast.ToString(getOrDefault("NEW_RELIC_LICENSE_KEY", "")),
			Enabled:    cast.ToBool(getOrDefault("NEW_RELIC_ENABLED", false)),
		},
		Log: LogConfig{
			ServiceName: cast.ToString(getOrDefault("SERVICE_NAME", "rideshare-api")),
			Level:       cast.ToString(getOrDefault("LOG_LEVEL", "info")),
		},
		Metrics: MetricsConfig{
			Enabled: cast.ToBool(getOrDefault("METRICS_ENABLED", true)),
			Path:    cast.ToString(getOrDefault("METRICS_PATH", "/metrics")),
		},
		Geocoder: GeocoderConfig{
			Enabled:   cast.ToBool(getOrDefault("GEOCODER_ENABLED", true)),
			BaseURL:   cast.ToString(getOrDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")),
			UserAgent: cast.ToString(getOrDefault("GEOCODER_USER_AGENT", "rideshare-api/1.0")),
			Timeout:   cast.ToDuration(getOrDefault("GEOCODER_TIMEOUT", 5*time.Second)),
			CacheTTL:  cast.ToDuration(getOrDefault("GEOCODER_CACHE_TTL", 24*time.Hour)),
		},
		Matching: MatchingConfig{
			SearchRadiusKm:  cast.ToFloat64(getOrDefault("MATCHING_SEARCH_RADIUS_KM", 10.0)),
			MaxDetourKm:     cast.ToFloat64(getOrDefault("MATCHING_MAX_DETOUR_KM", 5.0)),
			AverageSpeedKmh: cast.ToFloat64(getOrDefault("MATCHING_AVERAGE_SPEED_KMH", 40.0)),
			TripLockTTL:     cast.ToDuration(getOrDefault("MATCHING_TRIP_LOCK_TTL", 10*time.Second)),
		},
		Tracking: TrackingConfig{
			LocationTTL: cast.ToDuration(getOrDefault("TRACKING_LOCATION_TTL", 10*time.Minute)),
		},
	}
}

func getOrDefault(key string, defaultValue any) any {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
