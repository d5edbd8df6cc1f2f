package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.Hit()
	p.Hit()
	p.Miss()
	p.Expire()
	p.Restore()
	p.QuotaRecovery(3)
	p.QuotaRecovery(0)
	p.StorageError("set")
	p.StorageError("set")
	p.StorageError("remove")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.Hits()))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Misses()))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Expired()))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Restored()))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.recoveries))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.recovered))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.storageErrors.WithLabelValues("set")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.storageErrors.WithLabelValues("remove")))
}

func TestPrometheus_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")
	p.StorageError("get")

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = testutil.GatherAndCount(reg, "test_cache_storage_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Panics(t, func() { NewPrometheus(reg, "test") }, "double registration")
}
