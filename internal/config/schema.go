package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version int         `yaml:"version"`
	API     APIConfig   `yaml:"api"`
	State   StateConfig `yaml:"state"`
	Log     LogConfig   `yaml:"log"`
}

// APIConfig locates the backend
type APIConfig struct {
	URL string `yaml:"url" validate:"required,url"`
	// Timeout of zero leaves the transport default (no timeout) in place
	Timeout Duration `yaml:"timeout,omitempty" validate:"gte=0"`
}

// StateConfig controls where the session token is kept between runs
type StateConfig struct {
	Path    string `yaml:"path"`
	Persist *bool  `yaml:"persist,omitempty"`
}

// ShouldPersist reports whether sessions are written to the state database
func (s StateConfig) ShouldPersist() bool {
	return s.Persist == nil || *s.Persist
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
