package config

import (
	"fmt"
	"sync"
)

// The process-wide configuration. CLI commands that open storage backends
// or construct telemetry share one loaded Config through these accessors;
// library consumers should pass Config values explicitly instead.
var (
	globalMu sync.RWMutex
	global   *Config
)

// Initialize loads configuration from path, applies environment overrides,
// and installs the result as the process-wide Config. The first successful
// load wins: later calls return nil without touching the installed config.
// A failed load installs nothing, so callers may retry with a corrected
// path.
func Initialize(path string) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil {
		return nil
	}
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// GetConfig returns the process-wide Config, or nil before a successful
// Initialize. Safe for concurrent use.
func GetConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// SetConfig replaces the process-wide Config directly, bypassing loading
// and validation. Tests use it to install fixtures.
func SetConfig(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = cfg
}

// ReloadConfig loads path again and swaps the process-wide Config. The
// swap happens only after loading and validation succeed, so a broken
// file on disk leaves the running configuration intact.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	globalMu.Lock()
	global = cfg
	globalMu.Unlock()
	return nil
}
