package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int    `env:"TEST_CFG_PORT" envDefault:"8080"`
	Host     string `env:"TEST_CFG_HOST" envDefault:"localhost"`
	LogLevel string `env:"TEST_CFG_LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"TEST_CFG_DEBUG" envDefault:"false"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Debug)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_HOST", "0.0.0.0")
	t.Setenv("TEST_CFG_LOG_LEVEL", "debug")
	t.Setenv("TEST_CFG_DEBUG", "true")

	var cfg testConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Debug)
}

type requiredConfig struct {
	APIKey string `env:"TEST_CFG_API_KEY,required"`
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_RequiredFieldPresent(t *testing.T) {
	t.Setenv("TEST_CFG_API_KEY", "secret-123")

	var cfg requiredConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, "secret-123", cfg.APIKey)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadFrom_UsesGivenEnvironment(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "7070")

	var cfg testConfig
	err := LoadFrom(&cfg, map[string]string{"TEST_CFG_HOST": "shop.local"})

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port, "process environment must be ignored")
	assert.Equal(t, "shop.local", cfg.Host)
}

func TestLoadFrom_NilEnvironmentUsesDefaults(t *testing.T) {
	var cfg testConfig
	err := LoadFrom(&cfg, nil)

	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFrom_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := LoadFrom(&cfg, map[string]string{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestEnviron_SplitsOnFirstEquals(t *testing.T) {
	t.Setenv("TEST_CFG_DSN", "redis://localhost:6379/0?opt=a=b")

	environ := Environ()
	assert.Equal(t, "redis://localhost:6379/0?opt=a=b", environ["TEST_CFG_DSN"])
}
