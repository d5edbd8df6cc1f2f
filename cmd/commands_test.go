package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		arg  string
		want any
	}{
		{"hello", "hello"},
		{`"quoted"`, "quoted"},
		{"42", 42.0},
		{"true", true},
		{`{"a":1}`, map[string]any{"a": 1.0}},
		{`[1,"x"]`, []any{1.0, "x"}},
		{"{broken", "{broken"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.arg))
		})
	}
}

func TestPrintValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printValue(&buf, "plain"))
	require.NoError(t, printValue(&buf, map[string]any{"a": 1.0}))
	assert.Equal(t, "plain\n{\"a\":1}\n", buf.String())
}

func TestCommands_RoundTripOnDisk(t *testing.T) {
	dir := t.TempDir()
	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(append([]string{"--data-dir", dir, "--log-level", "error"}, args...))
		err := rootCmd.Execute()
		return out.String(), err
	}

	_, err := run("set", "user", `{"name":"ada"}`)
	require.NoError(t, err)

	out, err := run("get", "user")
	require.NoError(t, err)
	assert.Equal(t, "{\"name\":\"ada\"}\n", out)

	out, err = run("valid", "user")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = run("stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Persistent entries : 1")

	_, err = run("invalidate", "user")
	require.NoError(t, err)

	_, err = run("get", "user")
	assert.ErrorIs(t, err, errNotFound)

	_, err = run("set", "a", "1")
	require.NoError(t, err)
	_, err = run("clear")
	require.NoError(t, err)
	out, err = run("stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Persistent entries : 0")
}
