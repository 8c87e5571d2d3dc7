package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	UploadPath   string // Base path for uploaded poster images
	Env          string // "development" or "production"
	CORSOrigin   string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int

	RatingRefreshSpec string // cron spec for the rating aggregate updater

	LoginRatePerMin int // allowed login attempts per identifier per minute
	LoginBurst      int
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	accessTTL, err := time.ParseDuration(getEnv("ACCESS_TOKEN_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
	}

	refreshTTL, err := time.ParseDuration(getEnv("REFRESH_TOKEN_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_TTL: %w", err)
	}

	bcryptCost, err := strconv.Atoi(getEnv("BCRYPT_COST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	loginRate, err := strconv.Atoi(getEnv("LOGIN_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE: %w", err)
	}

	loginBurst, err := strconv.Atoi(getEnv("LOGIN_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_BURST: %w", err)
	}

	cfg := &Config{
		ServerPort:         port,
		DatabasePath:       getEnv("DATABASE_PATH", "./cinelog.db"),
		UploadPath:         getEnv("UPLOAD_PATH", "./uploads"),
		Env:                getEnv("APP_ENV", "development"),
		CORSOrigin:         getEnv("CORS_ORIGIN", "http://localhost:5173"),
		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		BcryptCost:         bcryptCost,
		RatingRefreshSpec:  getEnv("RATING_REFRESH_SPEC", "@every 5m"),
		LoginRatePerMin:    loginRate,
		LoginBurst:         loginBurst,
	}

	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}

	return cfg, nil
}

// IsProduction reports whether the app runs in production-like mode; cookie
// attributes depend on it.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
