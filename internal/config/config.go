// Package config defines the Nuwa Radio configuration format and helpers for
// loading or saving it to disk.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// AppID is the stable application identifier used for config storage.
	AppID = "nuwaradio"
	// AppConfigSubdir is the OS-specific directory that holds the config file.
	AppConfigSubdir = "NuwaRadio"
	// AppConfigName is the JSON file stored on disk.
	AppConfigName = "config.json"

	// DefaultBackendURL points at a locally running station backend.
	DefaultBackendURL = "http://localhost:5000/api"
	// DefaultEnvironment selects info-level logging.
	DefaultEnvironment = "production"
	// DefaultErrorRetryDelayMs debounces reloads after a stream error.
	DefaultErrorRetryDelayMs = 3000
	// DefaultNetworkCachingMs is the libVLC buffering window for live streams.
	DefaultNetworkCachingMs = 1500
	// DefaultRequestTimeoutMs bounds a single catalog fetch.
	DefaultRequestTimeoutMs = 10000

	// EnvBackendURL overrides BackendURL when set.
	EnvBackendURL = "NUWARADIO_BACKEND_URL"
	// EnvEnvironment overrides Environment when set.
	EnvEnvironment = "NUWARADIO_ENV"
)

// Config aggregates the process settings persisted between sessions.
// User preferences (favorites, volume) live in their own record, see package prefs.
type Config struct {
	BackendURL        string `json:"backendUrl"`
	Environment       string `json:"environment"`
	ErrorRetryDelayMs int    `json:"errorRetryDelayMs"`
	NetworkCachingMs  int    `json:"networkCachingMs"`
	RequestTimeoutMs  int    `json:"requestTimeoutMs"`
}

// ConfigDir resolves the writable directory that should contain the config file.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppConfigSubdir), nil
}

// ConfigPath is a helper that returns the full path to config.json.
func ConfigPath() (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, AppConfigName), nil
}

// Load reads the config from disk, applying defaults and environment
// overrides. A missing file is created with defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := newDefaultConfig()
			// Try saving an initial config, but still return defaults even if it fails.
			_ = cfg.Save()
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config parse error: %w", err)
	}
	cfg.applyRuntimeDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// Save persists the configuration to disk, creating directories as needed.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// ErrorRetryDelay is the debounce applied before recovering from a stream error.
func (c *Config) ErrorRetryDelay() time.Duration {
	return time.Duration(c.ErrorRetryDelayMs) * time.Millisecond
}

// RequestTimeout bounds a single catalog request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// newDefaultConfig builds an in-memory config populated with safe defaults.
func newDefaultConfig() *Config {
	cfg := &Config{
		BackendURL:        DefaultBackendURL,
		Environment:       DefaultEnvironment,
		ErrorRetryDelayMs: DefaultErrorRetryDelayMs,
		NetworkCachingMs:  DefaultNetworkCachingMs,
		RequestTimeoutMs:  DefaultRequestTimeoutMs,
	}
	cfg.applyRuntimeDefaults()
	return cfg
}

// applyRuntimeDefaults normalizes config values after a load or when defaults
// are constructed.
func (c *Config) applyRuntimeDefaults() {
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	if c.BackendURL == "" {
		c.BackendURL = DefaultBackendURL
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = DefaultEnvironment
	}
	if c.ErrorRetryDelayMs <= 0 {
		c.ErrorRetryDelayMs = DefaultErrorRetryDelayMs
	}
	if c.NetworkCachingMs <= 0 {
		c.NetworkCachingMs = DefaultNetworkCachingMs
	}
	if c.RequestTimeoutMs <= 0 {
		c.RequestTimeoutMs = DefaultRequestTimeoutMs
	}
}

// applyEnv lets deployment scripts point the client elsewhere without
// touching the file on disk. Overrides are never saved.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		c.BackendURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvEnvironment)); v != "" {
		c.Environment = v
	}
}
