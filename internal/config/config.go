// Package config provides configuration management for the application.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/phimkappa/phimkappa/internal/constants"
	apperrors "github.com/phimkappa/phimkappa/internal/errors"
)

const (
	// Default configuration file name
	defaultConfigFile = "config.json"
	// Default dotenv file name
	defaultEnvFile = ".env"
)

// Config holds the application configuration.
// It supports loading from a .env file, environment variables and a JSON file.
type Config struct {
	// HTTP server
	Port            string
	PublicBaseURL   string
	ShutdownTimeout time.Duration

	// Upstream catalog
	UpstreamBaseURL   string
	ImageCDNURL       string
	UpstreamTimeout   time.Duration
	UpstreamRateLimit int
	UpstreamRateBurst int
	UpstreamRetries   int

	// Upstream response cache
	ResponseCacheSize int
	ResponseCacheTTL  time.Duration

	// Resolution cache storage
	CacheBackend  string
	DatabasePath  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Link resolver
	ResolverHosts       []string
	ResolverHostPattern string
	ProbeStrategy       string
	ProbeTimeout        time.Duration
	ResolveCacheTTL     time.Duration
	AcceptUnverified    bool
	DropUnresolved      bool
	ResolveConcurrency  int

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Observability
	MetricsEnabled bool
	TracingEnabled bool
	OtlpEndpoint   string
	ServiceName    string
}

// Default returns a configuration populated with built-in defaults only.
func Default() *Config {
	return &Config{
		Port:            constants.DefaultPort,
		PublicBaseURL:   constants.DefaultPublicBaseURL,
		ShutdownTimeout: constants.ShutdownTimeout,

		UpstreamBaseURL:   constants.DefaultUpstreamBaseURL,
		ImageCDNURL:       constants.DefaultImageCDNURL,
		UpstreamTimeout:   constants.UpstreamTimeout,
		UpstreamRateLimit: constants.UpstreamRateLimit,
		UpstreamRateBurst: constants.UpstreamRateBurst,
		UpstreamRetries:   constants.UpstreamRetries,

		ResponseCacheSize: constants.DefaultResponseCacheSize,
		ResponseCacheTTL:  constants.ResponseCacheTTL,

		CacheBackend: constants.CacheBackendMemory,
		DatabasePath: constants.DefaultDatabasePath,
		RedisAddr:    constants.DefaultRedisAddr,

		ResolverHosts:       append([]string{}, constants.DefaultResolverHosts...),
		ResolverHostPattern: constants.DefaultHostPattern,
		ProbeStrategy:       constants.ProbeStrategyRace,
		ProbeTimeout:        constants.ProbeTimeout,
		ResolveCacheTTL:     constants.ResolveCacheTTL,
		ResolveConcurrency:  constants.ResolveConcurrency,

		LogLevel:      constants.DefaultLogLevel,
		LogMaxSizeMB:  constants.LogMaxSizeMB,
		LogMaxBackups: constants.LogMaxBackups,
		LogMaxAgeDays: constants.LogMaxAgeDays,

		MetricsEnabled: true,
		OtlpEndpoint:   "127.0.0.1:4317",
		ServiceName:    constants.DefaultServiceName,
	}
}

// Load reads configuration from the JSON file and the environment.
// Environment variables (including those from .env) take precedence over file values.
// Returns an error if the configuration is invalid.
func Load() (*Config, error) {
	cfg := Default()

	// .env never overrides variables already present in the environment
	_ = godotenv.Load(getEnvOrDefault("ENV_FILE", defaultEnvFile))

	configFile := getEnvOrDefault("CONFIG_FILE", defaultConfigFile)
	if err := cfg.loadFromFile(configFile); err != nil {
		// Ignore file not found errors
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// keys lists every recognised setting; the same names are used in the environment and the JSON file.
var keys = []string{
	"PORT", "PUBLIC_BASE_URL", "SHUTDOWN_TIMEOUT",
	"UPSTREAM_BASE_URL", "IMAGE_CDN_URL", "UPSTREAM_TIMEOUT", "UPSTREAM_RATE_LIMIT", "UPSTREAM_RATE_BURST", "UPSTREAM_RETRIES",
	"RESPONSE_CACHE_SIZE", "RESPONSE_CACHE_TTL",
	"CACHE_BACKEND", "DATABASE_PATH", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"RESOLVER_HOSTS", "RESOLVER_HOST_PATTERN", "PROBE_STRATEGY", "PROBE_TIMEOUT", "RESOLVE_CACHE_TTL",
	"ACCEPT_UNVERIFIED", "DROP_UNRESOLVED", "RESOLVE_CONCURRENCY",
	"LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS", "LOG_MAX_AGE_DAYS",
	"METRICS_ENABLED", "TRACING_ENABLED", "OTLP_ENDPOINT", "SERVICE_NAME",
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() error {
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if err := c.set(key, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadFromFile loads configuration from a JSON file.
func (c *Config) loadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key, val := range raw {
		str, ok := stringify(val)
		if !ok {
			return apperrors.NewConfigurationError(fmt.Sprintf("unsupported value for %s", key), nil)
		}
		if err := c.set(key, str); err != nil {
			return err
		}
	}
	return nil
}

// set applies one raw setting. Unknown keys are ignored.
func (c *Config) set(key, v string) error {
	var err error
	switch key {
	case "PORT":
		c.Port = v
	case "PUBLIC_BASE_URL":
		c.PublicBaseURL = strings.TrimSuffix(v, "/")
	case "SHUTDOWN_TIMEOUT":
		c.ShutdownTimeout, err = time.ParseDuration(v)
	case "UPSTREAM_BASE_URL":
		c.UpstreamBaseURL = strings.TrimSuffix(v, "/")
	case "IMAGE_CDN_URL":
		c.ImageCDNURL = strings.TrimSuffix(v, "/")
	case "UPSTREAM_TIMEOUT":
		c.UpstreamTimeout, err = time.ParseDuration(v)
	case "UPSTREAM_RATE_LIMIT":
		c.UpstreamRateLimit, err = strconv.Atoi(v)
	case "UPSTREAM_RATE_BURST":
		c.UpstreamRateBurst, err = strconv.Atoi(v)
	case "UPSTREAM_RETRIES":
		c.UpstreamRetries, err = strconv.Atoi(v)
	case "RESPONSE_CACHE_SIZE":
		c.ResponseCacheSize, err = strconv.Atoi(v)
	case "RESPONSE_CACHE_TTL":
		c.ResponseCacheTTL, err = time.ParseDuration(v)
	case "CACHE_BACKEND":
		c.CacheBackend = strings.ToLower(v)
	case "DATABASE_PATH":
		c.DatabasePath = v
	case "REDIS_ADDR":
		c.RedisAddr = v
	case "REDIS_PASSWORD":
		c.RedisPassword = v
	case "REDIS_DB":
		c.RedisDB, err = strconv.Atoi(v)
	case "RESOLVER_HOSTS":
		c.ResolverHosts = splitList(v)
	case "RESOLVER_HOST_PATTERN":
		c.ResolverHostPattern = v
	case "PROBE_STRATEGY":
		c.ProbeStrategy = strings.ToLower(v)
	case "PROBE_TIMEOUT":
		c.ProbeTimeout, err = time.ParseDuration(v)
	case "RESOLVE_CACHE_TTL":
		c.ResolveCacheTTL, err = time.ParseDuration(v)
	case "ACCEPT_UNVERIFIED":
		c.AcceptUnverified, err = strconv.ParseBool(v)
	case "DROP_UNRESOLVED":
		c.DropUnresolved, err = strconv.ParseBool(v)
	case "RESOLVE_CONCURRENCY":
		c.ResolveConcurrency, err = strconv.Atoi(v)
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(v)
	case "LOG_FILE":
		c.LogFile = v
	case "LOG_MAX_SIZE_MB":
		c.LogMaxSizeMB, err = strconv.Atoi(v)
	case "LOG_MAX_BACKUPS":
		c.LogMaxBackups, err = strconv.Atoi(v)
	case "LOG_MAX_AGE_DAYS":
		c.LogMaxAgeDays, err = strconv.Atoi(v)
	case "METRICS_ENABLED":
		c.MetricsEnabled, err = strconv.ParseBool(v)
	case "TRACING_ENABLED":
		c.TracingEnabled, err = strconv.ParseBool(v)
	case "OTLP_ENDPOINT":
		c.OtlpEndpoint = v
	case "SERVICE_NAME":
		c.ServiceName = v
	}
	if err != nil {
		return apperrors.NewConfigurationError(fmt.Sprintf("invalid value %q for %s", v, key), err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case constants.CacheBackendMemory, constants.CacheBackendBolt, constants.CacheBackendRedis:
	default:
		return apperrors.NewConfigurationError(fmt.Sprintf("unknown CACHE_BACKEND %q", c.CacheBackend), nil)
	}

	switch c.ProbeStrategy {
	case constants.ProbeStrategySequential, constants.ProbeStrategyRace:
	default:
		return apperrors.NewConfigurationError(fmt.Sprintf("unknown PROBE_STRATEGY %q", c.ProbeStrategy), nil)
	}

	if len(c.ResolverHosts) == 0 {
		return apperrors.NewConfigurationError("RESOLVER_HOSTS must list at least one host", nil)
	}

	re, err := regexp.Compile(c.ResolverHostPattern)
	if err != nil {
		return apperrors.NewConfigurationError("RESOLVER_HOST_PATTERN does not compile", err)
	}
	if re.NumSubexp() != 1 {
		return apperrors.NewConfigurationError("RESOLVER_HOST_PATTERN must have exactly one capture group", nil)
	}

	if c.ProbeTimeout < constants.MinProbeTimeout || c.ProbeTimeout > constants.MaxProbeTimeout {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("PROBE_TIMEOUT must be between %v and %v", constants.MinProbeTimeout, constants.MaxProbeTimeout), nil)
	}

	if c.ResolveCacheTTL <= 0 || c.ResponseCacheTTL <= 0 || c.UpstreamTimeout <= 0 {
		return apperrors.NewConfigurationError("timeouts and TTLs must be positive", nil)
	}

	if c.ResponseCacheSize <= 0 {
		c.ResponseCacheSize = constants.DefaultResponseCacheSize
	}
	if c.ResolveConcurrency <= 0 {
		c.ResolveConcurrency = 1
	}
	if c.UpstreamRetries < 1 {
		c.UpstreamRetries = 1
	}

	return nil
}

// splitList converts a comma separated value into trimmed, non-empty items.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// stringify converts a decoded JSON value into the textual form used by set.
func stringify(val interface{}) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				items = append(items, str)
			}
		}
		return strings.Join(items, ","), true
	default:
		return "", false
	}
}

// getEnvOrDefault returns environment variable value or default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
