package main

import (
	"errors"
	"fmt"
	"time"

	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cache "github.com/krisalay/tiered-cache"
	"github.com/krisalay/tiered-cache/engine"
)

const appName = "tieredcache"

// Config is everything the CLI reads from flags, environment and the config file.
type Config struct {
	Prefix     string
	DefaultTTL time.Duration
	DataDir    string
	QuotaBytes int64
	LogLevel   string
}

// setDefaults registers every config key on v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("prefix", cache.DefaultPrefix)
	v.SetDefault("default_ttl", engine.DefaultTTL)
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("quota_bytes", 5*1024*1024)
	v.SetDefault("log_level", "warn")
}

func defaultDataDir() string {
	dir, err := gap.NewScope(gap.User, appName).DataPath("badger")
	if err != nil {
		return ""
	}
	return dir
}

func configFromViper(v *viper.Viper) Config {
	return Config{
		Prefix:     v.GetString("prefix"),
		DefaultTTL: v.GetDuration("default_ttl"),
		DataDir:    v.GetString("data_dir"),
		QuotaBytes: v.GetInt64("quota_bytes"),
		LogLevel:   v.GetString("log_level"),
	}
}

// Validate reports every problem at once.
func (c Config) Validate(needDataDir bool) error {
	var errs error
	if c.DefaultTTL <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("default_ttl must be positive, got %s", c.DefaultTTL))
	}
	if c.QuotaBytes < 0 {
		errs = multierr.Append(errs, fmt.Errorf("quota_bytes must not be negative, got %d", c.QuotaBytes))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log_level: %w", err))
	}
	if needDataDir && c.DataDir == "" {
		errs = multierr.Append(errs, errors.New("data_dir is required"))
	}
	return errs
}

// Logger builds a console logger on stderr at the configured level.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = true
	return zc.Build()
}

// CacheOptions turns the config into cache options.
func (c Config) CacheOptions(logger *zap.Logger) []cache.Option {
	return []cache.Option{
		cache.WithPrefix(c.Prefix),
		cache.WithDefaultTTL(c.DefaultTTL),
		cache.WithLogger(logger),
	}
}
