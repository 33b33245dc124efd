package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty directory and clears DRONECHECK_* variables.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, b := range envBindings() {
		t.Setenv(b.EnvVar, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini:gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.Equal(t, "ip", cfg.Geo.Source)
	assert.Nil(t, cfg.Geo.Latitude)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "dronecheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: openai:gpt-4o
llm:
  timeout: 15s
  temperature: 0.4
geo:
  source: fixed
  latitude: 43.6047
  longitude: 1.4442
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt-4o", cfg.Model)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.4, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, "fixed", cfg.Geo.Source)
	require.NotNil(t, cfg.Geo.Latitude)
	assert.InDelta(t, 43.6047, *cfg.Geo.Latitude, 1e-9)
	assert.InDelta(t, 1.4442, *cfg.Geo.Longitude, 1e-9)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "dronecheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: openai:gpt-4o\n"), 0o644))
	t.Setenv("DRONECHECK_MODEL", "anthropic:claude-sonnet-4-6")
	t.Setenv("DRONECHECK_GEO_SOURCE", "none")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic:claude-sonnet-4-6", cfg.Model)
	assert.Equal(t, "none", cfg.Geo.Source)
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		env, value string
	}{
		{"DRONECHECK_LATITUDE", "95"},
		{"DRONECHECK_LONGITUDE", "east"},
		{"DRONECHECK_GEO_SOURCE", "gps"},
		{"DRONECHECK_LLM_TIMEOUT", "-1s"},
		{"DRONECHECK_LOG_LEVEL", "loud"},
		{"DRONECHECK_MODEL", "gemini"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.env, tt.value)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_HalfCoordinates(t *testing.T) {
	isolate(t)
	t.Setenv("DRONECHECK_LATITUDE", "45")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set together")
}

func TestLoad_CoordinatesImplyFixedSource(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		isolate(t)
		t.Setenv("DRONECHECK_LATITUDE", "-17.535")
		t.Setenv("DRONECHECK_LONGITUDE", "-149.569")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "fixed", cfg.Geo.Source)
		require.NotNil(t, cfg.Geo.Latitude)
		assert.InDelta(t, -17.535, *cfg.Geo.Latitude, 1e-9)
	})

	t.Run("file", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "dronecheck.yaml")
		require.NoError(t, os.WriteFile(path, []byte("geo:\n  latitude: 45.764\n  longitude: 4.8357\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "fixed", cfg.Geo.Source)
	})

	t.Run("explicit source wins", func(t *testing.T) {
		isolate(t)
		t.Setenv("DRONECHECK_LATITUDE", "45.764")
		t.Setenv("DRONECHECK_LONGITUDE", "4.8357")
		t.Setenv("DRONECHECK_GEO_SOURCE", "none")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "none", cfg.Geo.Source)
	})
}

func TestValidate_FixedWithoutCoordinates(t *testing.T) {
	isolate(t)
	t.Setenv("DRONECHECK_GEO_SOURCE", "fixed")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires geo.latitude")
}
