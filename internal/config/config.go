// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/tibo-tui/internal/util"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tibo configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend is the order-intent service
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Audio capture for voice orders
	Audio AudioConfig `toml:"audio" json:"audio"`

	// Execution of confirmed sales
	Execution ExecutionConfig `toml:"execution" json:"execution"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging" json:"logging"`

	// Export of conversation transcripts
	Export ExportConfig `toml:"export" json:"export"`
}

// BackendConfig contains the order-intent backend settings.
type BackendConfig struct {
	// URL is the backend base URL
	URL string `toml:"url" json:"url"`
	// TimeoutSecs bounds each request
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RequestsPerSecond throttles submissions
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
	// MaxUploadMB rejects larger audio clips client-side
	MaxUploadMB int `toml:"max_upload_mb" json:"max_upload_mb"`
}

// AudioConfig contains audio capture settings.
type AudioConfig struct {
	// Enabled turns voice input on; the recorder is still probed at start
	Enabled bool `toml:"enabled" json:"enabled"`
	// Recorder is one of: auto, arecord, rec, file, none
	Recorder string `toml:"recorder" json:"recorder"`
	// File is the WAV replayed by the "file" recorder
	File string `toml:"file" json:"file,omitempty"`
	// SampleRate in Hz
	SampleRate int `toml:"sample_rate" json:"sample_rate"`
	// Channels, 1 for mono
	Channels int `toml:"channels" json:"channels"`
	// Device is passed to the recorder (e.g. "hw:1,0"); empty for default
	Device string `toml:"device" json:"device,omitempty"`
}

// ExecutionConfig contains settings for confirmed sales.
type ExecutionConfig struct {
	// DelayMs is the simulated commit time after confirm
	DelayMs int `toml:"delay_ms" json:"delay_ms"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// CompactMode uses a more compact layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level: trace, debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// Format: json or console
	Format string `toml:"format" json:"format"`
	// File receives logs while the full-screen UI owns the terminal
	File string `toml:"file" json:"file,omitempty"`
}

// ExportConfig contains transcript export settings.
type ExportConfig struct {
	// Dir is where exported transcripts are written
	Dir string `toml:"dir" json:"dir,omitempty"`
}

// Timeout returns the backend timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSecs) * time.Second
}

// MaxUploadBytes returns the upload limit in bytes.
func (b BackendConfig) MaxUploadBytes() int64 {
	return int64(b.MaxUploadMB) * 1024 * 1024
}

// Delay returns the execution delay as a duration.
func (e ExecutionConfig) Delay() time.Duration {
	return time.Duration(e.DelayMs) * time.Millisecond
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Backend: BackendConfig{
			URL:               "http://localhost:8000",
			TimeoutSecs:       30,
			RequestsPerSecond: 2,
			MaxUploadMB:       10,
		},
		Audio: AudioConfig{
			Enabled:    true,
			Recorder:   "auto",
			SampleRate: 16000,
			Channels:   1,
		},
		Execution: ExecutionConfig{
			DelayMs: 2000,
		},
		UI: UIConfig{
			Theme: "auto",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tibo configuration directory path. TIBO_HOME
// overrides the default ~/.tibo.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TIBO_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tibo"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultLogPath returns ~/.tibo/tibo.log.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tibo.log"), nil
}

// DefaultExportDir returns ~/.tibo/exports.
func DefaultExportDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "exports"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		return LoadFromPath(path)
	}

	cfg := Default()
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Keys missing from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies env overrides, migration, defaults and validation.
func finish(cfg *Config) error {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with a header comment.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# tibo configuration file\n")
	b.WriteString("# Environment variables (TIBO_*) override these values.\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validRecorders  = []string{"auto", "arecord", "rec", "file", "none"}
	validThemes     = []string{"auto", "dark", "light"}
	validLogLevels  = []string{"trace", "debug", "info", "warn", "error", "disabled"}
	validLogFormats = []string{"json", "console"}
)

// Validate validates the configuration and returns ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Backend
	if u, err := url.Parse(c.Backend.URL); err != nil {
		add("backend.url", "invalid URL: %v", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("backend.url", "scheme must be http or https, got '%s'", u.Scheme)
	} else if u.Host == "" {
		add("backend.url", "missing host")
	}
	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 600 {
		add("backend.timeout_secs", "must be between 1 and 600, got %d", c.Backend.TimeoutSecs)
	}
	if c.Backend.RequestsPerSecond <= 0 {
		add("backend.requests_per_second", "must be positive")
	}
	if c.Backend.MaxUploadMB < 1 || c.Backend.MaxUploadMB > 100 {
		add("backend.max_upload_mb", "must be between 1 and 100, got %d", c.Backend.MaxUploadMB)
	}

	// Audio
	if !oneOf(c.Audio.Recorder, validRecorders) {
		add("audio.recorder", "invalid recorder '%s', must be one of: %s", c.Audio.Recorder, strings.Join(validRecorders, ", "))
	}
	if strings.EqualFold(c.Audio.Recorder, "file") && c.Audio.File == "" {
		add("audio.file", "required when audio.recorder is 'file'")
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 48000 {
		add("audio.sample_rate", "must be between 8000 and 48000, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		add("audio.channels", "must be 1 or 2, got %d", c.Audio.Channels)
	}

	// Execution
	if c.Execution.DelayMs < 0 || c.Execution.DelayMs > 60000 {
		add("execution.delay_ms", "must be between 0 and 60000, got %d", c.Execution.DelayMs)
	}

	// UI / logging
	if !oneOf(c.UI.Theme, validThemes) {
		add("ui.theme", "invalid theme '%s', must be one of: %s", c.UI.Theme, strings.Join(validThemes, ", "))
	}
	if !oneOf(c.Logging.Level, validLogLevels) {
		add("logging.level", "invalid level '%s', must be one of: %s", c.Logging.Level, strings.Join(validLogLevels, ", "))
	}
	if !oneOf(c.Logging.Format, validLogFormats) {
		add("logging.format", "invalid format '%s', must be one of: %s", c.Logging.Format, strings.Join(validLogFormats, ", "))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func oneOf(value string, options []string) bool {
	for _, o := range options {
		if strings.EqualFold(value, o) {
			return true
		}
	}
	return false
}

// SetDefaults fills zero-value fields with defaults. Booleans are left alone.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Backend.URL == "" {
		c.Backend.URL = defaults.Backend.URL
	}
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if c.Backend.RequestsPerSecond == 0 {
		c.Backend.RequestsPerSecond = defaults.Backend.RequestsPerSecond
	}
	if c.Backend.MaxUploadMB == 0 {
		c.Backend.MaxUploadMB = defaults.Backend.MaxUploadMB
	}

	if c.Audio.Recorder == "" {
		c.Audio.Recorder = defaults.Audio.Recorder
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = defaults.Audio.SampleRate
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = defaults.Audio.Channels
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
}

// Migrate upgrades older config files to CurrentVersion.
func (c *Config) Migrate() error {
	switch c.Version {
	case "", CurrentVersion:
		c.Version = CurrentVersion
		return nil
	default:
		return fmt.Errorf("unsupported config version %q", c.Version)
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - TIBO_BACKEND_URL: overrides backend.url
//   - TIBO_TIMEOUT: overrides backend.timeout_secs
//   - TIBO_LOG_LEVEL: overrides logging.level
//   - TIBO_LOG_FORMAT: overrides logging.format
//   - TIBO_RECORDER: overrides audio.recorder ("none" also disables audio)
//   - TIBO_AUDIO_FILE: overrides audio.file and selects the file recorder
//   - TIBO_EXECUTION_DELAY_MS: overrides execution.delay_ms
//   - TIBO_THEME: overrides ui.theme
//
// Malformed numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TIBO_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("TIBO_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = n
		}
	}
	if v := os.Getenv("TIBO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TIBO_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("TIBO_AUDIO_FILE"); v != "" {
		c.Audio.File = v
		c.Audio.Recorder = "file"
	}
	if v := os.Getenv("TIBO_RECORDER"); v != "" {
		c.Audio.Recorder = v
		if strings.EqualFold(v, "none") {
			c.Audio.Enabled = false
		}
	}
	if v := os.Getenv("TIBO_EXECUTION_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Execution.DelayMs = n
		}
	}
	if v := os.Getenv("TIBO_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "backend.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "backend.url").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation, in struct order.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("toml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, name, keys)
			continue
		}
		*keys = append(*keys, name)
	}
}

// Clone creates a copy of the configuration. Config holds no reference
// types, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns an indented JSON representation for display.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access; falls back to defaults on error.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
