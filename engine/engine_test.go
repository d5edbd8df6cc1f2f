package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/krisalay/tiered-cache/expiration"
	"github.com/krisalay/tiered-cache/types"
)

type countingMetrics struct {
	types.NoopMetrics
	storageErrors map[string]int
	recoveries    []int
}

func (m *countingMetrics) StorageError(op string) {
	if m.storageErrors == nil {
		m.storageErrors = map[string]int{}
	}
	m.storageErrors[op]++
}

func (m *countingMetrics) QuotaRecovery(removed int) {
	m.recoveries = append(m.recoveries, removed)
}

func TestNewCacheEngine_Defaults(t *testing.T) {
	e := NewCacheEngine(nil, nil, nil, nil, 0)

	assert.IsType(t, expiration.ExpireAfterWrite{}, e.Expiration)
	assert.IsType(t, types.NoopMetrics{}, e.Metrics)
	assert.NotNil(t, e.Logger)
	assert.NotNil(t, e.TimeFunc)
	assert.Equal(t, DefaultTTL, e.DefaultTTL)
	assert.Equal(t, 5*time.Minute, e.DefaultTTL)
}

func TestCacheEngine_TTLFor(t *testing.T) {
	e := NewCacheEngine(nil, nil, nil, nil, time.Hour)

	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, time.Hour},
		{-time.Second, time.Hour},
		{time.Millisecond, time.Millisecond},
		{10 * time.Minute, 10 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, e.TTLFor(tt.in))
		})
	}
}

func TestCacheEngine_IsValidUsesClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewCacheEngine(nil, nil, nil, func() time.Time { return now }, 0)

	s := types.Stamp{CreatedAt: now, TTL: time.Second}
	assert.True(t, e.IsValid(s))

	now = now.Add(time.Second)
	assert.False(t, e.IsValid(s))
}

func TestCacheEngine_Report(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		key   string
		level zapcore.Level
		msg   string
	}{
		{
			name:  "quota",
			err:   fmt.Errorf("retry after quota recovery: %w", types.ErrQuotaExceeded),
			key:   "user",
			level: zapcore.ErrorLevel,
			msg:   "persistent tier still full after quota recovery",
		},
		{
			name:  "corrupt",
			err:   fmt.Errorf("%w: bad json", types.ErrCorruptRecord),
			key:   "user",
			level: zapcore.WarnLevel,
			msg:   "ignoring unreadable cache record",
		},
		{
			name:  "other",
			err:   errors.New("io"),
			level: zapcore.WarnLevel,
			msg:   "persistent tier operation failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			m := &countingMetrics{}
			e := NewCacheEngine(nil, m, zap.New(core), nil, 0)

			e.Report(tt.name, tt.key, tt.err)

			entries := logs.All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, tt.level, entries[0].Level)
				assert.Equal(t, tt.msg, entries[0].Message)
				fields := entries[0].ContextMap()
				assert.Equal(t, tt.name, fields["op"])
				if tt.key != "" {
					assert.Equal(t, tt.key, fields["key"])
				} else {
					assert.NotContains(t, fields, "key")
				}
			}
			assert.Equal(t, 1, m.storageErrors[tt.name])
		})
	}
}

func TestCacheEngine_ReportRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := &countingMetrics{}
	e := NewCacheEngine(nil, m, zap.New(core), nil, 0)

	e.ReportRecovery(4)

	assert.Equal(t, []int{4}, m.recoveries)
	entries := logs.FilterMessage("quota recovery sweep finished").All()
	if assert.Len(t, entries, 1) {
		assert.EqualValues(t, 4, entries[0].ContextMap()["removed"])
	}
}
