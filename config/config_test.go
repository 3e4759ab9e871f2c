package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Test loading default config
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify defaults
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	assert.Equal(t, 3, cfg.Engine.AwardRetries)
	assert.Equal(t, 10, cfg.Engine.LeaderboardLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("LINGOKIT_STORAGE_ADAPTER", "file")
	os.Setenv("LINGOKIT_STORAGE_FILE_PATH", "/tmp/points.json")
	os.Setenv("LINGOKIT_ENGINE_AWARD_RETRIES", "7")
	defer func() {
		os.Unsetenv("LINGOKIT_STORAGE_ADAPTER")
		os.Unsetenv("LINGOKIT_STORAGE_FILE_PATH")
		os.Unsetenv("LINGOKIT_ENGINE_AWARD_RETRIES")
	}()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Adapter)
	assert.Equal(t, "/tmp/points.json", cfg.Storage.File.Path)
	assert.Equal(t, 7, cfg.Engine.AwardRetries)
}

func TestLoadEnvOverrideTypes(t *testing.T) {
	os.Setenv("LINGOKIT_ENGINE_ASYNC_EVENTS", "true")
	os.Setenv("LINGOKIT_SERVER_READ_TIMEOUT", "45s")
	os.Setenv("LINGOKIT_SECURITY_API_KEYS", "k1, k2,k3")
	defer func() {
		os.Unsetenv("LINGOKIT_ENGINE_ASYNC_EVENTS")
		os.Unsetenv("LINGOKIT_SERVER_READ_TIMEOUT")
		os.Unsetenv("LINGOKIT_SECURITY_API_KEYS")
	}()

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Engine.AsyncEvents)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Security.APIKeys)
}

func TestLoadEnvRejectsMalformedValues(t *testing.T) {
	os.Setenv("LINGOKIT_SERVER_READ_TIMEOUT", "soon")
	defer os.Unsetenv("LINGOKIT_SERVER_READ_TIMEOUT")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	// Create a temporary config file
	configContent := `{
		"environment": "testing",
		"server": {
			"address": ":9090"
		},
		"storage": {
			"adapter": "memory"
		}
	}`

	tmpFile, err := os.CreateTemp("", "config_test_*.json")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	tmpFile.Close()

	// Load config from file
	cfg, err := LoadFromFile(tmpFile.Name())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify loaded values
	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: EnvDevelopment,
			Server: ServerConfig{
				Address:           ":8080",
				ReadTimeout:       time.Second,
				WriteTimeout:      time.Second,
				IdleTimeout:       time.Second,
				ReadHeaderTimeout: time.Second,
				ShutdownTimeout:   time.Second,
			},
			Storage: StorageConfig{
				Adapter: "memory",
			},
			Engine: EngineConfig{
				AwardRetries:     3,
				LeaderboardLimit: 10,
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid config", func(*Config) {}, false},
		{"invalid environment", func(c *Config) { c.Environment = "" }, true},
		{"invalid server timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, true},
		{"invalid storage adapter", func(c *Config) { c.Storage.Adapter = "carrier-pigeon" }, true},
		{"invalid award retries", func(c *Config) { c.Engine.AwardRetries = 0 }, true},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		name         string
		profileName  string
		expectConfig bool
		environment  Environment
	}{
		{"development", "development", true, EnvDevelopment},
		{"testing", "testing", true, EnvTesting},
		{"staging", "staging", true, EnvStaging},
		{"production", "production", true, EnvProduction},
		{"unknown", "unknown", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadProfile(tt.profileName)
			if tt.expectConfig {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				assert.Equal(t, tt.environment, cfg.Environment)
			} else {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			}
		})
	}
}

func TestSecrets(t *testing.T) {
	// Test environment secret store
	store := NewEnvironmentSecretStore()

	// Set test environment variable
	testKey := "TEST_SECRET_KEY"
	testValue := "test_secret_value"
	os.Setenv(testKey, testValue)
	defer os.Unsetenv(testKey)

	ctx := context.Background()

	// Test Get
	value, err := store.Get(ctx, testKey)
	assert.NoError(t, err)
	assert.Equal(t, testValue, value)

	// Test GetWithDefault
	defaultValue := "default"
	value = store.GetWithDefault(ctx, "NONEXISTENT_KEY", defaultValue)
	assert.Equal(t, defaultValue, value)

	value = store.GetWithDefault(ctx, testKey, defaultValue)
	assert.Equal(t, testValue, value)
}

func TestValidateConfigPath(t *testing.T) {
	t.Run("valid json file", func(t *testing.T) {
		tmpFile, err := os.CreateTemp("", "config_test_*.json")
		require.NoError(t, err)
		defer os.Remove(tmpFile.Name())
		_, _ = tmpFile.WriteString("{}")
		tmpFile.Close()
		assert.NoError(t, validateConfigPath(tmpFile.Name()))
	})
	t.Run("empty path", func(t *testing.T) {
		assert.Error(t, validateConfigPath(""))
	})
	t.Run("non-json file", func(t *testing.T) {
		tmpFile, err := os.CreateTemp("", "config_test_*.txt")
		require.NoError(t, err)
		defer os.Remove(tmpFile.Name())
		_, _ = tmpFile.WriteString("{}")
		tmpFile.Close()
		assert.Error(t, validateConfigPath(tmpFile.Name()))
	})
	t.Run("nonexistent file", func(t *testing.T) {
		assert.Error(t, validateConfigPath("nonexistent.json"))
	})
}
