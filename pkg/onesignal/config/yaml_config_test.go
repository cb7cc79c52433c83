// --- File: pkg/onesignal/config/yaml_config_test.go ---
package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-onesignal/pkg/onesignal/config"
	"gopkg.in/yaml.v3"
)

func TestNewConfigFromYaml(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success - maps all fields correctly", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			AppID:             "yaml-app",
			RESTAPIKey:        "yaml-key",
			BaseURL:           "https://api.example/v1/",
			DefaultIcon:       "https://yaml.example/icon.png",
			Language:          "fr",
			Timeout:           12.5,
			ConnectTimeout:    3,
			RequestsPerSecond: 10,
			Cache: config.YamlCacheConfig{
				Backend:        "redis",
				TTLSeconds:     120,
				MemoryCapacity: 64,
				Redis: config.YamlRedisConfig{
					Addr:     "redis:6379",
					Password: "secret",
					DB:       1,
				},
			},
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "yaml-app", cfg.AppID)
		assert.Equal(t, "yaml-key", cfg.RESTAPIKey)
		assert.Equal(t, "https://api.example/v1/", cfg.BaseURL)
		assert.Equal(t, "https://yaml.example/icon.png", cfg.DefaultIcon)
		assert.Equal(t, "fr", cfg.Language)
		assert.Equal(t, 12500*time.Millisecond, cfg.Timeout)
		assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
		assert.Equal(t, 10.0, cfg.RequestsPerSecond)

		assert.Equal(t, config.CacheBackendRedis, cfg.Cache.Backend)
		assert.Equal(t, 120*time.Second, cfg.Cache.TTL)
		assert.Equal(t, 64, cfg.Cache.MemoryCapacity)
		assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
		assert.Equal(t, "secret", cfg.Cache.Redis.Password)
		assert.Equal(t, 1, cfg.Cache.Redis.DB)
	})

	t.Run("Success - Handles missing optional fields gracefully", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			AppID:      "minimal-app",
			RESTAPIKey: "minimal-key",
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		assert.Equal(t, "minimal-app", cfg.AppID)
		assert.Equal(t, config.DefaultBaseURL, cfg.BaseURL)
		assert.Equal(t, config.DefaultTimeout, cfg.Timeout)
		assert.Equal(t, config.DefaultCacheTTL, cfg.Cache.TTL)
		assert.Empty(t, cfg.DefaultIcon)
	})

	t.Run("Success - Unmarshals raw YAML", func(t *testing.T) {
		raw := []byte(`
app_id: raw-app
rest_api_key: raw-key
timeout: 7.5
cache:
  backend: none
  ttl: 30
`)
		var yamlCfg config.YamlConfig
		require.NoError(t, yaml.Unmarshal(raw, &yamlCfg))

		cfg, err := config.NewConfigFromYaml(&yamlCfg, logger)

		require.NoError(t, err)
		assert.Equal(t, "raw-app", cfg.AppID)
		assert.Equal(t, 7500*time.Millisecond, cfg.Timeout)
		assert.Equal(t, config.CacheBackendNone, cfg.Cache.Backend)
		assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	})
}
