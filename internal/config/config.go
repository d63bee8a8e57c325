package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
type Config struct {
	DatabaseURL       string
	Port              string
	JWTSecret         string
	LogLevel          string
	LogFormat         string
	Timezone          *time.Location
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	GoogleMapsKey     string
	HEREAPIKey        string
	FirebaseBase64    string
	FirebaseCredsFile string
}

// LoadDotEnv reads a .env file if present. It reports whether one was loaded.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         os.Getenv("APP_JWT_SECRET"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		GoogleMapsKey:     os.Getenv("GOOGLE_MAPS_API_KEY"),
		HEREAPIKey:        os.Getenv("HERE_API_KEY"),
		FirebaseBase64:    os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
		FirebaseCredsFile: getEnv("FIREBASE_CREDENTIALS_FILE", "./firebase-service-account.json"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	tz := getEnv("APP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tz, err)
	}
	cfg.Timezone = loc

	if cfg.DBMaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
