package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"spendwise/backend/database"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port            string
	Env             string
	AppURL          string
	CORSOrigins     []string
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Database
	DBDriver    string
	SQLitePath  string
	DatabaseURL string
	Postgres    database.PostgresConfig

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// Firebase (optional second identity provider)
	FirebaseCredentialsJSON   string
	FirebaseCredentialsBase64 string
	FirebaseProjectID         string

	// Stripe
	StripeSecretKey     string
	StripePriceID       string
	StripeWebhookSecret string

	// Scheduler
	BillResetSchedule string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		AppURL:          strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		CORSOrigins:     getEnvList("CORS_ALLOWED_ORIGINS"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DBDriver:    getEnv("DB_DRIVER", ""),
		SQLitePath:  getEnv("DB_PATH", "./spendwise.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Postgres: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "spendwise"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 30*24*time.Hour),

		FirebaseCredentialsJSON:   getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseCredentialsBase64: getEnv("FIREBASE_SERVICE_ACCOUNT_BASE64", ""),
		FirebaseProjectID:         getEnv("FIREBASE_PROJECT_ID", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripePriceID:       getEnv("STRIPE_PRICE_ID", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		BillResetSchedule: getEnv("BILL_RESET_SCHEDULE", "0 0 1 * *"),
	}

	if cfg.DBDriver == "" {
		if cfg.DatabaseURL != "" {
			cfg.DBDriver = database.DriverPostgres
		} else {
			cfg.DBDriver = database.DriverSQLite
		}
	}

	// Development gets a fixed signing key so local sessions survive restarts.
	if cfg.SessionSecret == "" && !cfg.IsProduction() {
		cfg.SessionSecret = "spendwise-development-session-secret"
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// DSN returns the connection string for the selected driver
func (c *Config) DSN() string {
	if c.DBDriver == database.DriverPostgres {
		if c.DatabaseURL != "" {
			return c.DatabaseURL
		}
		return c.Postgres.ConnectionString()
	}
	return database.SQLiteDSN(c.SQLitePath)
}

// FirebaseEnabled reports whether Firebase credentials were supplied
func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseCredentialsJSON != "" || c.FirebaseCredentialsBase64 != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	switch c.DBDriver {
	case database.DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, "DB_PATH cannot be empty when using sqlite3")
		} else if c.SQLitePath != ":memory:" {
			dir := filepath.Dir(c.SQLitePath)
			if dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	case database.DriverPostgres:
		if c.DatabaseURL != "" {
			if u, err := url.Parse(c.DatabaseURL); err != nil {
				errs = append(errs, fmt.Sprintf("invalid DATABASE_URL: %v", err))
			} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
				errs = append(errs, fmt.Sprintf("invalid DATABASE_URL scheme '%s'", u.Scheme))
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid DB_DRIVER '%s': must be '%s' or '%s'", c.DBDriver, database.DriverSQLite, database.DriverPostgres))
	}

	if c.SessionSecret == "" {
		errs = append(errs, "SESSION_SECRET is required in production")
	} else if c.IsProduction() && len(c.SessionSecret) < 32 {
		errs = append(errs, "SESSION_SECRET must be at least 32 characters in production")
	}
	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if _, err := url.ParseRequestURI(c.AppURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid APP_URL '%s': %v", c.AppURL, err))
	}

	if c.StripePriceID != "" && c.StripeSecretKey == "" {
		errs = append(errs, "STRIPE_PRICE_ID requires STRIPE_SECRET_KEY")
	}
	if c.StripeWebhookSecret != "" && c.StripeSecretKey == "" {
		errs = append(errs, "STRIPE_WEBHOOK_SECRET requires STRIPE_SECRET_KEY")
	}

	if _, err := cron.ParseStandard(c.BillResetSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("invalid BILL_RESET_SCHEDULE '%s': %v", c.BillResetSchedule, err))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
