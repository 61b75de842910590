package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultPostgresDSN = "host=localhost user=postgres password=postgres dbname=gaughar port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string
	Database    DatabaseConfig
	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins string
	Timezone    string
	LogLevel    string
}

// DatabaseConfig selects the gorm dialector and its connection string.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// Load reads the environment (optionally seeded from envFile) into a Config
// and validates it.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		// .env is optional when the environment is provided directly.
		_ = godotenv.Load()
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL is invalid: %w", err)
	}

	cfg := &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
			DSN:    getEnv("DATABASE_DSN", ""),
		},
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTTTL:      ttl,
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		Timezone:    getEnv("TIMEZONE", "Asia/Kathmandu"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
	if cfg.Database.DSN == "" {
		switch cfg.Database.Driver {
		case DriverSQLite:
			cfg.Database.DSN = "gaughar.db"
		default:
			cfg.Database.DSN = defaultPostgresDSN
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == DriverPostgres && cfg.Database.DSN == defaultPostgresDSN {
		log.Println("[WARN] DATABASE_DSN uses the default value, define your own Postgres connection for production.")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS uses the default value, define your own domain for production.")
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT must be provided")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER %q is not supported (postgres, sqlite)", c.Database.Driver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured farm timezone; "today" is evaluated in it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AllowedOrigins splits the comma separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
