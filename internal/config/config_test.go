// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points TIBO_HOME at a temp dir and clears TIBO_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TIBO_HOME", dir)
	for _, key := range []string{
		"TIBO_BACKEND_URL", "TIBO_TIMEOUT", "TIBO_LOG_LEVEL", "TIBO_LOG_FORMAT",
		"TIBO_RECORDER", "TIBO_AUDIO_FILE", "TIBO_EXECUTION_DELAY_MS", "TIBO_THEME",
	} {
		t.Setenv(key, "")
	}
	return dir
}

// =============================================================================
// DEFAULTS / LOAD
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout())
	assert.EqualValues(t, 10*1024*1024, cfg.Backend.MaxUploadBytes())
	assert.Equal(t, 2*time.Second, cfg.Execution.Delay())
	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.Equal(t, 1, cfg.Audio.Channels)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Backend, cfg.Backend)
}

func TestLoad_TOMLPartialKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	content := `
[backend]
url = "http://pos.local:9000/"

[execution]
delay_ms = 500
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://pos.local:9000", cfg.Backend.URL, "trailing slash trimmed")
	assert.Equal(t, 500*time.Millisecond, cfg.Execution.Delay())
	assert.Equal(t, 30, cfg.Backend.TimeoutSecs)
	assert.True(t, cfg.Audio.Enabled)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"ui": {"theme": "light"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[audio]\nrecorder = \"cassette\"\n"), 0600))

	_, err := Load()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs), "got %v", err)
	assert.Equal(t, "audio.recorder", verrs[0].Field)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Backend.URL = "https://tibo.example.com"
	cfg.Audio.Device = "hw:1,0"
	require.NoError(t, Save(cfg))

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# tibo configuration file"))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	jsonPath := filepath.Join(dir, "copy.json")
	require.NoError(t, SaveJSON(cfg, jsonPath))
	fromJSON, err := LoadFromPath(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, fromJSON)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad scheme", func(c *Config) { c.Backend.URL = "ftp://x" }, "backend.url"},
		{"no host", func(c *Config) { c.Backend.URL = "http://" }, "backend.url"},
		{"timeout", func(c *Config) { c.Backend.TimeoutSecs = 0 }, "backend.timeout_secs"},
		{"rps", func(c *Config) { c.Backend.RequestsPerSecond = -1 }, "backend.requests_per_second"},
		{"upload", func(c *Config) { c.Backend.MaxUploadMB = 500 }, "backend.max_upload_mb"},
		{"file recorder needs file", func(c *Config) { c.Audio.Recorder = "file" }, "audio.file"},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 100 }, "audio.sample_rate"},
		{"channels", func(c *Config) { c.Audio.Channels = 6 }, "audio.channels"},
		{"delay", func(c *Config) { c.Execution.DelayMs = -1 }, "execution.delay_ms"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()

			var verrs ValidateErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1, "errors: %v", verrs)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestMigrate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Migrate())
	assert.Equal(t, CurrentVersion, cfg.Version)

	cfg.Version = "99"
	assert.Error(t, cfg.Migrate())
}

// =============================================================================
// ENV OVERRIDES
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TIBO_BACKEND_URL", "http://10.0.0.5:8000")
	t.Setenv("TIBO_TIMEOUT", "5")
	t.Setenv("TIBO_LOG_LEVEL", "debug")
	t.Setenv("TIBO_EXECUTION_DELAY_MS", "not-a-number")
	t.Setenv("TIBO_AUDIO_FILE", "/tmp/demo.wav")
	t.Setenv("TIBO_THEME", "dark")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "http://10.0.0.5:8000", cfg.Backend.URL)
	assert.Equal(t, 5, cfg.Backend.TimeoutSecs)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2000, cfg.Execution.DelayMs, "malformed numbers are ignored")
	assert.Equal(t, "file", cfg.Audio.Recorder)
	assert.Equal(t, "/tmp/demo.wav", cfg.Audio.File)
	assert.Equal(t, "dark", cfg.UI.Theme)
}

func TestApplyEnvOverrides_RecorderNone(t *testing.T) {
	isolate(t)
	t.Setenv("TIBO_RECORDER", "none")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, "none", cfg.Audio.Recorder)
}

// =============================================================================
// GET / SET
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("backend.url")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", v)

	require.NoError(t, cfg.Set("backend.timeout_secs", "45"))
	assert.Equal(t, 45, cfg.Backend.TimeoutSecs)

	require.NoError(t, cfg.Set("audio.enabled", "false"))
	assert.False(t, cfg.Audio.Enabled)

	require.NoError(t, cfg.Set("backend.requests_per_second", "0.5"))
	assert.InDelta(t, 0.5, cfg.Backend.RequestsPerSecond, 1e-9)

	_, err = cfg.Get("backend.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("backend.timeout_secs", "soon"))
	assert.Error(t, cfg.Set("backend.url.host", "x"))
	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	assert.Contains(t, keys, "backend.url")
	assert.Contains(t, keys, "audio.recorder")
	assert.Contains(t, keys, "execution.delay_ms")
	assert.Contains(t, keys, "export.dir")

	cfg := Default()
	for _, key := range keys {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

// =============================================================================
// GLOBAL
// =============================================================================

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can be
// called concurrently. Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	_ = Global()
	custom := Default()
	custom.UI.Theme = "light"
	SetGlobal(custom)

	assert.Equal(t, "light", Global().UI.Theme)
	require.NoError(t, ReloadGlobal())
	assert.Equal(t, "auto", Global().UI.Theme)
}
