package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipherledger/channelcrypt/config"
)

func TestDefaults(t *testing.T) {
	manager := config.NewManager()
	require.NoError(t, manager.Load())

	cfg := manager.Config()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, config.AlgorithmAES256GCM, cfg.Encryption.Algorithm)
	assert.Equal(t, 30*time.Second, cfg.KeyCache.TTL())
	assert.Equal(t, 1024, cfg.KeyCache.MaxEntries)
	assert.Equal(t, 10*time.Second, cfg.ChannelCache.TTL())
	assert.Equal(t, 5*time.Second, cfg.KeyService.Timeout())
	assert.Equal(t, 30*time.Second, cfg.BlobStore.Timeout())
}

func TestSourcesOverrideDefaults(t *testing.T) {
	override, err := config.NewStructSource(config.Config{
		Logging: config.Logging{Level: "debug"},
		KeyCache: config.CacheSettings{
			TTLMillis: 1_000,
		},
	})
	require.NoError(t, err)

	manager := config.NewManager(override)
	require.NoError(t, manager.Load())

	cfg := manager.Config()
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, time.Second, cfg.KeyCache.TTL())
	// Values the source leaves unset keep their defaults.
	assert.Equal(t, 1024, cfg.KeyCache.MaxEntries)
	assert.Equal(t, config.AlgorithmAES256GCM, cfg.Encryption.Algorithm)
}

func TestValidation(t *testing.T) {
	t.Run("RejectsBadLogLevel", func(t *testing.T) {
		source, err := config.NewStructSource(config.Config{
			Logging: config.Logging{Level: "shouty"},
		})
		require.NoError(t, err)

		err = config.NewManager(source).Load()
		assert.ErrorContains(t, err, "logging.level")
	})

	t.Run("RejectsUnknownAlgorithm", func(t *testing.T) {
		source, err := config.NewStructSource(config.Config{
			Encryption: config.Encryption{Algorithm: "rot13"},
		})
		require.NoError(t, err)

		err = config.NewManager(source).Load()
		assert.ErrorContains(t, err, "encryption.algorithm")
	})

	t.Run("RejectsNonPositiveCacheBounds", func(t *testing.T) {
		source, err := config.NewStructSource(config.Config{
			KeyCache: config.CacheSettings{TTLMillis: -5, MaxEntries: 10},
		})
		require.NoError(t, err)

		err = config.NewManager(source).Load()
		assert.ErrorContains(t, err, "key_cache.ttl_ms")
	})

	t.Run("RejectsNegativeTimeout", func(t *testing.T) {
		source, err := config.NewStructSource(config.Config{
			KeyService: config.Service{TimeoutMillis: -1},
		})
		require.NoError(t, err)

		err = config.NewManager(source).Load()
		assert.ErrorContains(t, err, "key_service.timeout_ms")
	})
}

func TestEnvVarSource(t *testing.T) {
	t.Setenv("CHANNELCRYPT_LOGGING__LEVEL", "warn")
	t.Setenv("CHANNELCRYPT_KEY_CACHE__MAX_ENTRIES", "32")

	manager := config.NewManager(config.NewEnvVarSource())
	require.NoError(t, manager.Load())

	cfg := manager.Config()
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 32, cfg.KeyCache.MaxEntries)
}
