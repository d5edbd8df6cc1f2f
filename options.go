package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/tiered-cache/engine"
	"github.com/krisalay/tiered-cache/expiration"
	"github.com/krisalay/tiered-cache/types"
)

// DefaultPrefix namespaces persistent keys when WithPrefix is not given.
const DefaultPrefix = "cache_"

type options struct {
	prefix     string
	shards     int
	defaultTTL time.Duration
	expiration expiration.Strategy
	metrics    types.Metrics
	logger     *zap.Logger
	timefunc   engine.TimeFunc
}

// Option configures a TieredCache.
type Option func(o *options)

func newOptions(opts []Option) *options {
	o := &options{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPrefix sets the persistent tier namespace. An empty prefix claims every key in the tier.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithShards sets how many shards the memory tier is split into. Defaults to memtier.DefaultShards.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = ttl
	}
}

func WithExpiration(exp expiration.Strategy) Option {
	return func(o *options) {
		o.expiration = exp
	}
}

func WithMetrics(metrics types.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithLogger sets where swallowed failures are reported. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithTimeFunc(timefunc engine.TimeFunc) Option {
	return func(o *options) {
		o.timefunc = timefunc
	}
}
