// Package config provides configuration management for PathFinder.
//
// The config file holds where the backend lives and how the client behaves;
// the state database holds the session. Deleting the state database logs the
// user out without touching configuration.
//
// Config file locations (priority order):
//  1. $PATHFINDER_CONFIG
//  2. ./pathfinder.yaml
//  3. $XDG_CONFIG_HOME/pathfinder/config.yaml
//  4. ~/.config/pathfinder/config.yaml
//  5. /etc/pathfinder/config.yaml
//
// Environment variables PATHFINDER_API_URL, PATHFINDER_STATE_PATH and
// PATHFINDER_LOG_LEVEL override the file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIURL matches the backend's default development address
	DefaultAPIURL = "http://localhost:8000"

	EnvAPIURL    = "PATHFINDER_API_URL"
	EnvStatePath = "PATHFINDER_STATE_PATH"
	EnvLogLevel  = "PATHFINDER_LOG_LEVEL"
)

var validate = validator.New()

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied in both cases.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		if err := cfg.Validate(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		API:     APIConfig{URL: DefaultAPIURL},
		State:   StateConfig{Path: DefaultStatePath()},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.API.URL == "" {
		c.API.URL = DefaultAPIURL
	}
	if c.State.Path == "" {
		c.State.Path = DefaultStatePath()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// applyEnv applies environment overrides
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv(EnvStatePath); v != "" {
		c.State.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	c.API.URL = strings.TrimRight(c.API.URL, "/")
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("API: %s", c.API.URL)
	if t := c.API.Timeout.Duration(); t > 0 {
		summary += fmt.Sprintf(" (timeout %s)", t)
	}
	if c.State.ShouldPersist() {
		summary += fmt.Sprintf("\nState: %s", c.State.Path)
	} else {
		summary += "\nState: in-memory"
	}
	summary += fmt.Sprintf("\nLog: %s/%s", c.Log.Level, c.Log.Format)
	return summary
}
