package config

import (
	"os"
	"path/filepath"
)

const (
	EnvConfigPath  = "PATHFINDER_CONFIG"
	ConfigFileName = "pathfinder.yaml"
	ConfigDirName  = "pathfinder"

	// StateFileName holds the session between runs
	StateFileName = "state.db"
)

// searchPaths lists config candidates, most specific first. An unset
// variable drops its candidate rather than producing a relative path.
func searchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		paths = append(paths, abs)
	} else {
		paths = append(paths, ConfigFileName)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing file among $PATHFINDER_CONFIG,
// ./pathfinder.yaml, the XDG and ~/.config locations and /etc/pathfinder.
// It returns "" when there is none, and Load then runs on defaults.
func FindConfigPath() string {
	for _, p := range searchPaths() {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// DefaultConfigPath is where `config -init` writes
func DefaultConfigPath() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return ConfigFileName
}

// DefaultStatePath puts the session database beside the config file
func DefaultStatePath() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, StateFileName)
	}
	return StateFileName
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, ConfigDirName)
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName)
	}
	return ""
}

// EnsureConfigDir creates the parent directory of configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
