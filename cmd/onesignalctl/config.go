package main

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tinywideclouds/go-onesignal/pkg/cache"
	"github.com/tinywideclouds/go-onesignal/pkg/onesignal/config"
)

// loadConfig reads the YAML at path (or the embedded defaults when path is empty)
// and applies environment overrides on top.
func loadConfig(path string, embedded []byte, logger *slog.Logger) (*config.Config, error) {
	raw := embedded
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		raw = b
		logger.Debug("Using config file", "path", path)
	}

	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(raw, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml config: %w", err)
	}
	baseCfg, err := config.NewConfigFromYaml(&yamlCfg, logger)
	if err != nil {
		return nil, err
	}
	return config.UpdateConfigWithEnvOverrides(baseCfg, logger)
}

// newStore builds the cache backend named by cfg. The returned func releases it.
func newStore(cfg config.CacheConfig, logger *slog.Logger) (cache.Client, func(), error) {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		logger.Info("Initializing Redis cache", "addr", cfg.Redis.Addr)
		rc, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	case config.CacheBackendNone:
		logger.Info("Caching disabled")
		return cache.NewNop(), func() {}, nil
	default:
		logger.Debug("Using in-memory cache", "capacity", cfg.MemoryCapacity)
		return cache.NewMemoryClient(cfg.MemoryCapacity), func() {}, nil
	}
}
