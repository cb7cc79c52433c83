// --- File: pkg/onesignal/config/yaml_config.go ---
package config

import (
	"log/slog"
	"time"
)

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type YamlCacheConfig struct {
	Backend        string          `yaml:"backend"`
	TTLSeconds     int             `yaml:"ttl"`
	MemoryCapacity int             `yaml:"memory_capacity"`
	Redis          YamlRedisConfig `yaml:"redis"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
// Durations are expressed in (fractional) seconds.
type YamlConfig struct {
	AppID             string          `yaml:"app_id"`
	RESTAPIKey        string          `yaml:"rest_api_key"`
	BaseURL           string          `yaml:"base_url"`
	DefaultIcon       string          `yaml:"default_icon"`
	Language          string          `yaml:"language"`
	Timeout           float64         `yaml:"timeout"`
	ConnectTimeout    float64         `yaml:"connect_timeout"`
	RequestsPerSecond float64         `yaml:"requests_per_second"`
	Cache             YamlCacheConfig `yaml:"cache"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
// Fields left out of the YAML keep the package defaults.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := Default()
	cfg.AppID = baseCfg.AppID
	cfg.RESTAPIKey = baseCfg.RESTAPIKey
	cfg.DefaultIcon = baseCfg.DefaultIcon
	cfg.RequestsPerSecond = baseCfg.RequestsPerSecond
	cfg.Cache.Redis = RedisConfig{
		Addr:     baseCfg.Cache.Redis.Addr,
		Password: baseCfg.Cache.Redis.Password,
		DB:       baseCfg.Cache.Redis.DB,
	}

	if baseCfg.BaseURL != "" {
		cfg.BaseURL = baseCfg.BaseURL
	}
	if baseCfg.Language != "" {
		cfg.Language = baseCfg.Language
	}
	if baseCfg.Timeout > 0 {
		cfg.Timeout = Seconds(baseCfg.Timeout)
	}
	if baseCfg.ConnectTimeout > 0 {
		cfg.ConnectTimeout = Seconds(baseCfg.ConnectTimeout)
	}
	if baseCfg.Cache.Backend != "" {
		cfg.Cache.Backend = baseCfg.Cache.Backend
	}
	if baseCfg.Cache.TTLSeconds > 0 {
		cfg.Cache.TTL = time.Duration(baseCfg.Cache.TTLSeconds) * time.Second
	}
	if baseCfg.Cache.MemoryCapacity > 0 {
		cfg.Cache.MemoryCapacity = baseCfg.Cache.MemoryCapacity
	}

	logger.Debug("YAML config mapping complete",
		"base_url", cfg.BaseURL,
		"cache_backend", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL,
	)

	return cfg, nil
}
