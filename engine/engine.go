package engine

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/krisalay/tiered-cache/expiration"
	"github.com/krisalay/tiered-cache/types"
)

// DefaultTTL applies when neither the caller nor the configuration picks one.
const DefaultTTL = 5 * time.Minute

// TimeFunc returns the current time. Tests replace it with a fake clock.
type TimeFunc func() time.Time

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- When an entry is stale
- What "now" is
- Which TTL a write gets when the caller does not pick one
- Where swallowed failures are reported (logger + metrics)

It does NOT:
- Store data
- Talk to the persistent tier
- Handle locking
*/
type CacheEngine struct {

	// Expiration decides whether an entry is stale. It is never nil.
	Expiration expiration.Strategy

	// Metrics is how we keep track of what the cache is doing.
	Metrics types.Metrics

	// Logger is the single diagnostics sink for every failure the cache swallows.
	Logger *zap.Logger

	// TimeFunc is the clock used for creation stamps and validity checks.
	TimeFunc TimeFunc

	// DefaultTTL is used by Set and by SetWithTTL with a non-positive ttl.
	DefaultTTL time.Duration
}

/*
NewCacheEngine creates a CacheEngine.
Every nil or zero argument is replaced by its default, so the rest of the
cache never needs nil checks.
*/
func NewCacheEngine(
	exp expiration.Strategy,
	metrics types.Metrics,
	logger *zap.Logger,
	timefunc TimeFunc,
	defaultTTL time.Duration,
) *CacheEngine {
	if exp == nil {
		exp = expiration.ExpireAfterWrite{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timefunc == nil {
		timefunc = time.Now
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	return &CacheEngine{
		Expiration: exp,
		Metrics:    metrics,
		Logger:     logger,
		TimeFunc:   timefunc,
		DefaultTTL: defaultTTL,
	}
}

func (e *CacheEngine) Now() time.Time {
	return e.TimeFunc()
}

// IsValid re-checks validity against the current clock. Results are never cached.
func (e *CacheEngine) IsValid(s types.Stamp) bool {
	return !e.Expiration.IsExpired(s, e.Now())
}

// TTLFor resolves the TTL for a write.
func (e *CacheEngine) TTLFor(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return e.DefaultTTL
	}
	return ttl
}

/*
Report records a persistent tier failure that the cache is about to swallow.

Quota exhaustion that survived the recovery retry is logged at error level.
Everything else is a warning: the memory tier still serves this process.
*/
func (e *CacheEngine) Report(op, key string, err error) {
	e.Metrics.StorageError(op)

	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if key != "" {
		fields = append(fields, zap.String("key", key))
	}

	switch {
	case errors.Is(err, types.ErrQuotaExceeded):
		e.Logger.Error("persistent tier still full after quota recovery", fields...)
	case errors.Is(err, types.ErrCorruptRecord):
		e.Logger.Warn("ignoring unreadable cache record", fields...)
	default:
		e.Logger.Warn("persistent tier operation failed", fields...)
	}
}

// ReportRecovery records the outcome of a quota-recovery sweep.
func (e *CacheEngine) ReportRecovery(removed int) {
	e.Metrics.QuotaRecovery(removed)
	e.Logger.Info("quota recovery sweep finished", zap.Int("removed", removed))
}
