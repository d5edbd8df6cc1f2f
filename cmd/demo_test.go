package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDemo(context.Background(), &out, ""))

	s := out.String()
	assert.Contains(t, s, "GET user = <nil> (found: false)")
	assert.Contains(t, s, "memory entries = 0")
	assert.Contains(t, s, "memory entries = 1")
	assert.Contains(t, s, "GET otp = <nil> (found: false)")
	assert.Contains(t, s, "VALID otp = false")
	assert.Contains(t, s, "persistent entries = 2")
	assert.Contains(t, s, "GET report found = false")
	assert.Contains(t, s, "CLEAR, memory = 0, persistent = 0")
	assert.Contains(t, s, "GET theme = dark (found: true)")
	assert.Contains(t, s, "tieredcache_cache_quota_recoveries_total")
	assert.Contains(t, s, "tieredcache_cache_restored_total")
}

func TestRunBench(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runBench(context.Background(), &out, benchConfig{keys: 50, goroutines: 4, ops: 100}))
	assert.Contains(t, out.String(), "Total Operations : 400")
}
