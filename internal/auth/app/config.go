package app

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

const (
	KeyStorageEphemeral  = "ephemeral"
	KeyStoragePersistent = "persistent"
)

type Config struct {
	Issuer    string // Optional: iss claim for tokens (default: http://localhost:<port>)
	PublicURL string // Optional: base URL used in discovery metadata (default: Issuer)

	Algorithm            string        // Optional: signing algorithm (EdDSA, ES256, RS256) (default: EdDSA)
	RSABits              int           // Optional: RSA key size for RS256 (default: 2048)
	KeyStorageMode       string        // Optional: ephemeral or persistent (default: ephemeral)
	KeyRetention         time.Duration // Optional: how long retired keys still verify (default: 24h, never below MaxTokenTTL)
	KeyRotationInterval  time.Duration // Optional: automatic rotation age, 0 disables (default: 0)
	MasterKeyPath        string        // Optional: master key file for persistent keys (falls back to AUTH_MASTER_KEY)
	DatabaseFile         string        // Optional: SQLite database path (default: tollgate.db)
	PepperFile           string        // Optional: pepper file for secret hashing (default: pepper)
	DefaultTokenTTL      time.Duration // Optional: TTL for clients without their own (default: 1h)
	MaxTokenTTL          time.Duration // Optional: upper bound on any client TTL (default: 24h)
	AdminToken           string        // Optional: bearer token guarding admin endpoints, empty leaves them open
	SeedFile             string        // Optional: YAML file of clients registered at startup
	MetricsEnabled       bool          // Optional: expose /metrics (default: true)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Key purge/rotation check interval (default: 5m)
	RateLimits           httpx.RateLimits
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               os.Getenv("AUTH_ISSUER"),
		PublicURL:            os.Getenv("AUTH_PUBLIC_URL"),
		Algorithm:            getEnvOrDefault("AUTH_ALGORITHM", jwtx.AlgorithmEdDSA),
		RSABits:              getEnvIntOrDefault("AUTH_RSA_BITS", 0),
		KeyStorageMode:       getEnvOrDefault("AUTH_KEY_STORAGE_MODE", KeyStorageEphemeral),
		KeyRetention:         getEnvDurationOrDefault("AUTH_KEY_RETENTION", jwtx.DefaultRetention),
		KeyRotationInterval:  getEnvDurationOrDefault("AUTH_KEY_ROTATION_INTERVAL", 0),
		MasterKeyPath:        os.Getenv("AUTH_MASTER_KEY_PATH"),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "tollgate.db"),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		DefaultTokenTTL:      getEnvDurationOrDefault("AUTH_DEFAULT_TOKEN_TTL", service.DefaultTokenTTL),
		MaxTokenTTL:          getEnvDurationOrDefault("AUTH_MAX_TOKEN_TTL", service.MaxTokenTTL),
		AdminToken:           os.Getenv("AUTH_ADMIN_TOKEN"),
		SeedFile:             os.Getenv("AUTH_SEED_FILE"),
		MetricsEnabled:       getEnvBoolOrDefault("METRICS_ENABLED", true),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 5*time.Minute),
		RateLimits:           httpx.RateLimitsFromEnv(httpx.DefaultRateLimits),
	}

	if cfg.Issuer == "" {
		cfg.Issuer = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = cfg.Issuer
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	// A retired key must outlive every token it signed.
	if cfg.KeyRetention < cfg.MaxTokenTTL {
		cfg.KeyRetention = cfg.MaxTokenTTL
	}

	return cfg
}

// Validate reports every setting that would stop the server from starting.
func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(jwtx.SupportedAlgorithms, c.Algorithm) {
		errs = append(errs, fmt.Errorf("AUTH_ALGORITHM %q is not one of %v", c.Algorithm, jwtx.SupportedAlgorithms))
	}
	if c.KeyStorageMode != KeyStorageEphemeral && c.KeyStorageMode != KeyStoragePersistent {
		errs = append(errs, fmt.Errorf("AUTH_KEY_STORAGE_MODE %q must be %s or %s", c.KeyStorageMode, KeyStorageEphemeral, KeyStoragePersistent))
	}
	if c.DefaultTokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_DEFAULT_TOKEN_TTL must be positive"))
	}
	if c.MaxTokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_MAX_TOKEN_TTL must be positive"))
	}
	if c.DefaultTokenTTL > c.MaxTokenTTL {
		errs = append(errs, errors.New("AUTH_DEFAULT_TOKEN_TTL exceeds AUTH_MAX_TOKEN_TTL"))
	}
	if c.KeyRotationInterval < 0 {
		errs = append(errs, errors.New("AUTH_KEY_ROTATION_INTERVAL must not be negative"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
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

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
