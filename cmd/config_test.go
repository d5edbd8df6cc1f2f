package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := configFromViper(v)
	assert.Equal(t, "cache_", cfg.Prefix)
	assert.Equal(t, 5*time.Minute, cfg.DefaultTTL)
	assert.EqualValues(t, 5242880, cfg.QuotaBytes)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.NoError(t, cfg.Validate(false))
}

func TestConfig_Overrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("prefix", "app_")
	v.Set("default_ttl", "90s")
	v.Set("quota_bytes", 1024)
	v.Set("data_dir", "/tmp/x")

	cfg := configFromViper(v)
	assert.Equal(t, "app_", cfg.Prefix)
	assert.Equal(t, 90*time.Second, cfg.DefaultTTL)
	assert.EqualValues(t, 1024, cfg.QuotaBytes)
	assert.Equal(t, "/tmp/x", cfg.DataDir)
	assert.NoError(t, cfg.Validate(true))
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TIEREDCACHE_DEFAULT_TTL", "1h")

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(appName)
	v.AutomaticEnv()

	assert.Equal(t, time.Hour, configFromViper(v).DefaultTTL)
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := Config{
		DefaultTTL: 0,
		QuotaBytes: -1,
		LogLevel:   "loud",
	}

	err := cfg.Validate(true)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.Contains(t, err.Error(), "default_ttl")
	assert.Contains(t, err.Error(), "quota_bytes")
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "data_dir")

	assert.Len(t, multierr.Errors(cfg.Validate(false)), 3)
}

func TestConfig_Logger(t *testing.T) {
	logger, err := Config{LogLevel: "debug"}.Logger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = Config{LogLevel: "error"}.Logger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = Config{LogLevel: "nope"}.Logger()
	assert.Error(t, err)
}
