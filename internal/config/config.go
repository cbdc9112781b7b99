package config

import (
	"fmt"
	"os"
	"time"
)

const (
	defaultEnv             = "dev"
	defaultDBPath          = "./dev.db"
	defaultPort            = "8080"
	defaultCatalogPath     = "./suppliers.yaml"
	defaultGeocoderTimeout = 8 * time.Second
	defaultLogLevel        = "info"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env             string
	Port            string
	DBPath          string
	CatalogPath     string
	GeocoderBaseURL string
	GeocoderTimeout time.Duration
	LogLevel        string
}

// Load reads environment variables and returns a populated Config.
func Load() (Config, error) {
	// A local .env only fills variables the environment leaves unset.
	_, _ = loadDotEnv(".env")

	cfg := Config{
		Env:             getEnv("APP_ENV", defaultEnv),
		Port:            getEnv("PORT", defaultPort),
		DBPath:          getEnv("DB_PATH", defaultDBPath),
		CatalogPath:     getEnv("SUPPLIER_CATALOG", defaultCatalogPath),
		GeocoderBaseURL: os.Getenv("GEOCODER_BASE_URL"),
		GeocoderTimeout: defaultGeocoderTimeout,
		LogLevel:        getEnv("LOG_LEVEL", defaultLogLevel),
	}

	if raw := os.Getenv("GEOCODER_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("GEOCODER_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("GEOCODER_TIMEOUT must be positive, got %s", d)
		}
		cfg.GeocoderTimeout = d
	}

	return cfg, nil
}

// IsDev reports whether the service runs in development mode.
func (c Config) IsDev() bool {
	return c.Env != "production"
}

// Warnings lists optional settings that are missing.
func (c Config) Warnings() []string {
	var warnings []string
	if c.GeocoderBaseURL == "" {
		warnings = append(warnings, "GEOCODER_BASE_URL is not set; address lookup is disabled")
	}
	if !c.IsDev() && c.DBPath == defaultDBPath {
		warnings = append(warnings, "DB_PATH is not set in production; using "+defaultDBPath)
	}
	return warnings
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
