// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for CORS and the WebAuthn origin.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Session holds lock/unlock lifecycle settings.
	Session SessionConfig

	// WebAuthn holds relying-party settings for the platform authenticator.
	WebAuthn WebAuthnConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "bionotes").
	User string

	// Password is the MariaDB password (default: "bionotes").
	Password string

	// Name is the database name (default: "bionotes").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string

	// KeyPrefix namespaces every key written by the key-value store adapter,
	// the analog of the browser's origin-scoped storage.
	KeyPrefix string
}

// SessionConfig holds lock/unlock lifecycle settings.
type SessionConfig struct {
	// LockTimeout is the inactivity deadline after which an unlocked vault
	// locks itself. Re-armed by any qualifying activity signal.
	LockTimeout time.Duration

	// SimulatedDelay is how long the simulated authenticator waits before
	// succeeding, modeling real ceremony latency.
	SimulatedDelay time.Duration
}

// WebAuthnConfig holds relying-party settings for platform credential
// ceremonies.
type WebAuthnConfig struct {
	// RPDisplayName is shown by the platform's biometric prompt.
	RPDisplayName string

	// RPID is the relying-party identifier, normally the server's hostname.
	// Derived from BaseURL when not set explicitly.
	RPID string

	// RPOrigins are the origins allowed to complete ceremonies.
	RPOrigins []string

	// CeremonyTimeout bounds a single create/verify ceremony.
	CeremonyTimeout time.Duration

	// SessionTTL is how long a begun ceremony may wait for its finish call.
	SessionTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing or malformed.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "bionotes"),
			Password:        getEnv("DB_PASSWORD", "bionotes"),
			Name:            getEnv("DB_NAME", "bionotes"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", "redis://localhost:6379"),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "bionotes"),
		},

		Session: SessionConfig{
			LockTimeout:    getEnvDuration("LOCK_TIMEOUT", 5*time.Minute),
			SimulatedDelay: getEnvDuration("SIMULATED_AUTH_DELAY", 1500*time.Millisecond),
		},

		WebAuthn: WebAuthnConfig{
			RPDisplayName:   getEnv("WEBAUTHN_RP_DISPLAY_NAME", "BioNotes"),
			RPID:            getEnv("WEBAUTHN_RP_ID", ""),
			RPOrigins:       getEnvList("WEBAUTHN_RP_ORIGINS", nil),
			CeremonyTimeout: getEnvDuration("WEBAUTHN_CEREMONY_TIMEOUT", 60*time.Second),
			SessionTTL:      getEnvDuration("WEBAUTHN_SESSION_TTL", 5*time.Minute),
		},
	}

	// Derive the relying-party ID and allowed origin from BaseURL unless
	// overridden. The RP ID must be the hostname only, no scheme or port.
	if cfg.WebAuthn.RPID == "" || len(cfg.WebAuthn.RPOrigins) == 0 {
		parsed, err := url.Parse(cfg.BaseURL)
		if err != nil || parsed.Hostname() == "" {
			return nil, fmt.Errorf("BASE_URL %q is not a valid URL", cfg.BaseURL)
		}
		if cfg.WebAuthn.RPID == "" {
			cfg.WebAuthn.RPID = parsed.Hostname()
		}
		if len(cfg.WebAuthn.RPOrigins) == 0 {
			cfg.WebAuthn.RPOrigins = []string{parsed.Scheme + "://" + parsed.Host}
		}
	}

	if cfg.Session.LockTimeout <= 0 {
		return nil, fmt.Errorf("LOCK_TIMEOUT must be positive")
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "5m") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
