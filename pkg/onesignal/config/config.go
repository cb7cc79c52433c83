// --- File: pkg/onesignal/config/config.go ---
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultBaseURL        = "https://onesignal.com/api/v1/"
	DefaultLanguage       = "en"
	DefaultCacheTTL       = 3600 * time.Second
	DefaultTimeout        = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultMemoryCapacity = 1024
)

// Cache backends understood by the CLI wiring.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid onesignal configuration")

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	Backend        string
	TTL            time.Duration
	MemoryCapacity int
	Redis          RedisConfig
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	AppID      string
	RESTAPIKey string
	BaseURL    string

	DefaultIcon string
	Language    string

	Timeout           time.Duration
	ConnectTimeout    time.Duration
	RequestsPerSecond float64

	Cache CacheConfig
}

// Default returns a Config carrying every default but no credentials.
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Language:       DefaultLanguage,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		Cache: CacheConfig{
			Backend:        CacheBackendMemory,
			TTL:            DefaultCacheTTL,
			MemoryCapacity: DefaultMemoryCapacity,
		},
	}
}

// envOverrides holds the environment variables that may override a loaded Config.
// A nil field means the variable was not set.
type envOverrides struct {
	AppID             *string  `env:"ONESIGNAL_APP_ID"`
	RESTAPIKey        *string  `env:"ONESIGNAL_REST_API_KEY"`
	BaseURL           *string  `env:"ONESIGNAL_BASE_URL"`
	DefaultIcon       *string  `env:"ONESIGNAL_DEFAULT_ICON"`
	Language          *string  `env:"ONESIGNAL_LANGUAGE"`
	CacheTTL          *int     `env:"ONESIGNAL_CACHE_TTL"`
	Timeout           *float64 `env:"ONESIGNAL_TIMEOUT"`
	ConnectTimeout    *float64 `env:"ONESIGNAL_CONNECT_TIMEOUT"`
	RequestsPerSecond *float64 `env:"ONESIGNAL_REQUESTS_PER_SECOND"`
	CacheBackend      *string  `env:"ONESIGNAL_CACHE_BACKEND"`
	RedisAddr         *string  `env:"REDIS_ADDR"`
	RedisPassword     *string  `env:"REDIS_PASSWORD"`
	RedisDB           *int     `env:"REDIS_DB"`
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return nil, fmt.Errorf("%w: parse environment: %w", ErrInvalidConfig, err)
	}

	override := func(key string) {
		logger.Debug("Overriding config value", "key", key, "source", "env")
	}

	if o.AppID != nil {
		override("ONESIGNAL_APP_ID")
		cfg.AppID = *o.AppID
	}
	if o.RESTAPIKey != nil {
		override("ONESIGNAL_REST_API_KEY")
		cfg.RESTAPIKey = *o.RESTAPIKey
	}
	if o.BaseURL != nil {
		override("ONESIGNAL_BASE_URL")
		cfg.BaseURL = *o.BaseURL
	}
	if o.DefaultIcon != nil {
		override("ONESIGNAL_DEFAULT_ICON")
		cfg.DefaultIcon = *o.DefaultIcon
	}
	if o.Language != nil {
		override("ONESIGNAL_LANGUAGE")
		cfg.Language = *o.Language
	}
	if o.CacheTTL != nil {
		override("ONESIGNAL_CACHE_TTL")
		cfg.Cache.TTL = time.Duration(*o.CacheTTL) * time.Second
	}
	if o.Timeout != nil {
		override("ONESIGNAL_TIMEOUT")
		cfg.Timeout = Seconds(*o.Timeout)
	}
	if o.ConnectTimeout != nil {
		override("ONESIGNAL_CONNECT_TIMEOUT")
		cfg.ConnectTimeout = Seconds(*o.ConnectTimeout)
	}
	if o.RequestsPerSecond != nil {
		override("ONESIGNAL_REQUESTS_PER_SECOND")
		cfg.RequestsPerSecond = *o.RequestsPerSecond
	}
	if o.CacheBackend != nil {
		override("ONESIGNAL_CACHE_BACKEND")
		cfg.Cache.Backend = *o.CacheBackend
	}

	// Redis Overrides
	if o.RedisAddr != nil {
		cfg.Cache.Redis.Addr = *o.RedisAddr
		if o.CacheBackend == nil {
			cfg.Cache.Backend = CacheBackendRedis
		}
	}
	if o.RedisPassword != nil {
		cfg.Cache.Redis.Password = *o.RedisPassword
	}
	if o.RedisDB != nil {
		cfg.Cache.Redis.DB = *o.RedisDB
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}

// Validate fills unset defaults and checks the fields the client cannot run without.
func (c *Config) Validate() error {
	if c.AppID == "" || c.RESTAPIKey == "" {
		return fmt.Errorf("%w: app id and rest api key are required (set via YAML or ONESIGNAL_APP_ID / ONESIGNAL_REST_API_KEY)", ErrInvalidConfig)
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("%w: base url: %w", ErrInvalidConfig, err)
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.Timeout < 0 || c.ConnectTimeout < 0 || c.Cache.TTL < 0 || c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: timeouts, cache ttl and request rate must not be negative", ErrInvalidConfig)
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = CacheBackendMemory
	case CacheBackendMemory, CacheBackendNone:
	case CacheBackendRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("%w: redis cache backend requires an address", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Cache.MemoryCapacity <= 0 {
		c.Cache.MemoryCapacity = DefaultMemoryCapacity
	}
	return nil
}

// Seconds converts fractional seconds, the unit used in YAML and env, to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
