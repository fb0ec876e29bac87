package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/service"
	"github.com/aussiebroadwan/orgdir/pkg/httpx"
	"github.com/aussiebroadwan/orgdir/pkg/jwtx"
	"github.com/joho/godotenv"
)

type Config struct {
	Version string // Build version reported by /livez and /readyz

	DatabaseFile string // Optional: path to SQLite database file (default: ./orgdir.db)
	PepperFile   string // Optional: path to file containing pepper for secret hashing (default: ./pepper)

	TokenSecret    string        // Required outside dev: HMAC secret, at least 32 bytes
	TokenAlgorithm string        // Optional: HS256, HS384 or HS512 (default: HS256)
	TokenTTL       time.Duration // Optional: access token lifetime (default: 15m)
	TokenIssuer    string        // Optional: issuer claim (default: orgdir)

	RenameStrategy    string        // Optional: atomic or copy (default: atomic)
	LockTimeout       time.Duration // Optional: wait for a busy organization (default: 10s)
	RepairInterval    time.Duration // Optional: repair pass interval (default: 10m)
	RepairGracePeriod time.Duration // Optional: age before a journal entry is repaired (default: 5m)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	RateLimits httpx.RateLimitProfiles
}

// LoadEnvFile seeds the process environment from a dotenv file. Variables
// already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func LoadConfig() Config {
	return Config{
		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "orgdir.db"),
		PepperFile:   getEnvOrDefault("PEPPER_FILE", "pepper"),

		TokenSecret:    os.Getenv("TOKEN_SECRET"),
		TokenAlgorithm: getEnvOrDefault("TOKEN_ALGORITHM", "HS256"),
		TokenTTL:       getEnvDurationOrDefault("TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		TokenIssuer:    getEnvOrDefault("TOKEN_ISSUER", "orgdir"),

		RenameStrategy:    getEnvOrDefault("PARTITION_RENAME_STRATEGY", string(service.RenameAtomic)),
		LockTimeout:       getEnvDurationOrDefault("LOCK_TIMEOUT", 10*time.Second),
		RepairInterval:    getEnvDurationOrDefault("REPAIR_INTERVAL", 10*time.Minute),
		RepairGracePeriod: getEnvDurationOrDefault("REPAIR_GRACE_PERIOD", 5*time.Minute),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		RateLimits: httpx.RateLimitsFromEnv(),
	}
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	if _, err := service.ParseRenameStrategy(c.RenameStrategy); err != nil {
		errs = append(errs, err)
	}
	switch c.TokenAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("TOKEN_ALGORITHM must be HS256, HS384 or HS512, got %q", c.TokenAlgorithm))
	}
	if c.TokenSecret == "" && c.Env != "dev" {
		errs = append(errs, errors.New("TOKEN_SECRET is required outside dev"))
	}
	if c.TokenSecret != "" && len(c.TokenSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("TOKEN_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
