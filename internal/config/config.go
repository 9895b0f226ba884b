// Package config handles TOML-based configuration loading and validation.
// TOML is parsed as data only — no code execution is possible.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Timing overrides the convergence timing constants, all in milliseconds.
// Zero means the built-in default.
type Timing struct {
	PrimingMS      int   `toml:"priming_ms"`
	PrimingLocalMS int   `toml:"priming_local_ms"`
	RetryMS        []int `toml:"retry_ms"`
	GraceMS        int   `toml:"grace_ms"`
	DeadlineMS     int   `toml:"deadline_ms"`
}

// Config holds all application configuration.
type Config struct {
	DownloadDir string `toml:"download_dir"`
	UserAgent   string `toml:"user_agent"`
	ProbeSizes  bool   `toml:"probe_sizes"`
	Journal     bool   `toml:"journal"`
	JournalPath string `toml:"journal_path"`
	Capture     bool   `toml:"capture"`
	Debug       bool   `toml:"debug"`
	Timing      Timing `toml:"timing"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DownloadDir: "~/Videos/vidgrab",
		ProbeSizes:  true,
		Journal:     true,
		Capture:     true,
		Debug:       false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vidgrab"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vidgrab"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.DownloadDir == "" {
		return fmt.Errorf("download directory cannot be empty")
	}
	for _, v := range []struct {
		name string
		ms   int
	}{
		{"priming_ms", c.Timing.PrimingMS},
		{"priming_local_ms", c.Timing.PrimingLocalMS},
		{"grace_ms", c.Timing.GraceMS},
		{"deadline_ms", c.Timing.DeadlineMS},
	} {
		if v.ms < 0 {
			return fmt.Errorf("timing.%s cannot be negative", v.name)
		}
	}
	for _, ms := range c.Timing.RetryMS {
		if ms <= 0 {
			return fmt.Errorf("timing.retry_ms entries must be positive")
		}
	}
	if len(c.Timing.RetryMS) > 5 {
		return fmt.Errorf("timing.retry_ms supports at most 5 retries")
	}
	return nil
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// ResolveJournalPath returns the journal database path, defaulting to the
// XDG data directory.
func (c *Config) ResolveJournalPath() (string, error) {
	if c.JournalPath != "" {
		return filepath.Abs(c.JournalPath)
	}
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "vidgrab", "journal.db"), nil
}
