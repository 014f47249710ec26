package config

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periodicd/pkg/periodic"
)

func setenv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, k := range []string{
		"ENV", "HTTP_ADDR", "HTTP_CONTROL_TOKEN", "HTTP_CONTROL_RATE", "LOG_CONSOLE_LEVEL", "LOG_FILE_LEVEL", "LOG_FILE",
		"PROBE_INTERVAL", "PROBE_START_DELAY", "PROBE_TIMEOUT", "PROBE_IGNORE_FAILURES",
		"PROBE_SQLITE_PATH", "PROBE_PG_DSN", "PROBE_HTTP_URL", "PROBE_HTTP_HEADERS",
	} {
		t.Setenv(k, "")
	}
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setenv(t, map[string]string{"PROBE_SQLITE_PATH": "data/probe.db"})

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod", c.Env)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Empty(t, c.HTTP.ControlToken)
	assert.Equal(t, time.Second, c.HTTP.ControlRate)
	assert.Equal(t, "info", c.Log.ConsoleLevel)
	assert.Equal(t, 30*time.Second, c.Probe.Interval)
	assert.Equal(t, time.Duration(0), c.Probe.StartDelay)
	assert.Equal(t, 5*time.Second, c.Probe.Timeout)
	assert.True(t, c.Probe.IgnoreFailures)
	assert.Equal(t, "data/probe.db", c.Probe.SQLitePath)
	assert.Empty(t, c.Probe.HTTPHeaders)
}

func TestLoad_Overrides(t *testing.T) {
	setenv(t, map[string]string{
		"ENV":                   "dev",
		"LOG_CONSOLE_LEVEL":     "DEBUG",
		"PROBE_INTERVAL":        "250ms",
		"PROBE_START_DELAY":     "1s",
		"PROBE_IGNORE_FAILURES": "false",
		"PROBE_HTTP_URL":        "http://localhost:9000/health",
		"HTTP_CONTROL_TOKEN":    "s3cret",
		"HTTP_CONTROL_RATE":     "0s",
		"PROBE_HTTP_HEADERS":    "authorization: Bearer t0k; X-Env:staging ;",
	})

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", c.Env)
	assert.Equal(t, "debug", c.Log.ConsoleLevel)
	assert.Equal(t, 250*time.Millisecond, c.Probe.Interval)
	assert.Equal(t, time.Second, c.Probe.StartDelay)
	assert.False(t, c.Probe.IgnoreFailures)
	assert.Equal(t, "s3cret", c.HTTP.ControlToken)
	assert.Equal(t, time.Duration(0), c.HTTP.ControlRate)
	assert.Equal(t, map[string]string{"Authorization": "Bearer t0k", "X-Env": "staging"}, c.Probe.HTTPHeaders)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, err error)
	}{
		{
			name: "no targets",
			env:  map[string]string{},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoProbeTargets)
			},
		},
		{
			name: "calendar interval",
			env:  map[string]string{"PROBE_SQLITE_PATH": "x.db", "PROBE_INTERVAL": "@daily"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, periodic.ErrInvalidInterval)
			},
		},
		{
			name: "bad env",
			env:  map[string]string{"PROBE_SQLITE_PATH": "x.db", "ENV": "staging"},
			check: func(t *testing.T, err error) {
				var verrs validator.ValidationErrors
				assert.ErrorAs(t, err, &verrs)
			},
		},
		{
			name: "bad url",
			env:  map[string]string{"PROBE_HTTP_URL": "not a url"},
			check: func(t *testing.T, err error) {
				var verrs validator.ValidationErrors
				assert.ErrorAs(t, err, &verrs)
			},
		},
		{
			name: "negative delay",
			env:  map[string]string{"PROBE_SQLITE_PATH": "x.db", "PROBE_START_DELAY": "-1s"},
			check: func(t *testing.T, err error) {
				var verrs validator.ValidationErrors
				assert.ErrorAs(t, err, &verrs)
			},
		},
		{
			name: "malformed header",
			env:  map[string]string{"PROBE_HTTP_URL": "http://localhost/health", "PROBE_HTTP_HEADERS": "Authorization"},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "PROBE_HTTP_HEADERS")
			},
		},
		{
			name: "bad bool",
			env:  map[string]string{"PROBE_SQLITE_PATH": "x.db", "PROBE_IGNORE_FAILURES": "sometimes"},
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setenv(t, tt.env)
			_, err := Load()
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
