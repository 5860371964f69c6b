// Package config handles searchrelay configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultEndpointURL is the hosted search MCP endpoint used when no
// config file overrides it. The endpoint requires no authentication.
const DefaultEndpointURL = "https://mcp.websearch.dev/mcp"

// DefaultTimeoutSec is the per-call deadline in seconds.
const DefaultTimeoutSec = 30

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/searchrelay/config.yaml,
// /etc/searchrelay/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "searchrelay", "config.yaml"))
	}

	paths = append(paths, "/etc/searchrelay/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all searchrelay configuration.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	Journal  JournalConfig  `yaml:"journal"`
	LogLevel string         `yaml:"log_level"`
}

// EndpointConfig defines the remote search MCP endpoint.
type EndpointConfig struct {
	// URL is the base endpoint URL. The remote tool allowlist is appended
	// as a query parameter at request time.
	URL string `yaml:"url"`
	// TimeoutSec is the per-call deadline in seconds (default 30).
	TimeoutSec int `yaml:"timeout_sec"`
}

// JournalConfig defines the optional invocation journal.
type JournalConfig struct {
	// Enabled turns on per-invocation journaling. Off by default.
	Enabled bool `yaml:"enabled"`
	// Path is the SQLite database path (default: searchrelay.db in the
	// working directory).
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if cfg.Endpoint.URL == "" {
		cfg.Endpoint.URL = DefaultEndpointURL
	}
	if cfg.Endpoint.TimeoutSec <= 0 {
		cfg.Endpoint.TimeoutSec = DefaultTimeoutSec
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			URL:        DefaultEndpointURL,
			TimeoutSec: DefaultTimeoutSec,
		},
		Journal: JournalConfig{
			Path: "searchrelay.db",
		},
	}
}
