// Package config handles configuration loading from TOML files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server ServerConfig `toml:"server"`
	Query  QueryConfig  `toml:"query"`
	Cache  CacheConfig  `toml:"cache"`
}

// ServerConfig describes the external analysis process and how it is
// spoken to.
type ServerConfig struct {
	Command    string   `toml:"command"`
	Args       []string `toml:"args"`
	Env        []string `toml:"env"` // extra KEY=VALUE entries for the server process
	LanguageID string   `toml:"language_id"`
	OpenFiles  bool     `toml:"open_files"`
	// TimeoutSeconds bounds each awaited response; 0 waits forever, which
	// is what the exact protocol allows but means a hung server hangs the
	// whole run.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Timeout returns the per-call wait bound as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// QueryConfig controls which files get symbol queries.
type QueryConfig struct {
	// Extensions lists the file extensions eligible for symbol queries.
	// An empty list means every file is eligible.
	Extensions []string `toml:"extensions"`
}

// CacheConfig holds symbol cache settings.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the built-in configuration: jedi-language-server over
// stdio, Python files only, a 30 second call timeout, cache disabled.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Command:        "jedi-language-server",
			LanguageID:     "python",
			TimeoutSeconds: 30,
		},
		Query: QueryConfig{
			Extensions: []string{".py"},
		},
	}
}

// Load reads configuration from path when non-empty, otherwise returns the
// defaults. Environment variable overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	// An enabled cache without an explicit path lands in the data dir.
	if cfg.Cache.Enabled && cfg.Cache.Path == "" {
		dir, err := EnsureDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache path: %w", err)
		}
		cfg.Cache.Path = filepath.Join(dir, "cache.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Command == "" {
		errs = append(errs, errors.New("server.command is required"))
	}
	if c.Server.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("server.timeout_seconds=%d must not be negative", c.Server.TimeoutSeconds))
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		errs = append(errs, errors.New("cache.path is required when cache.enabled is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"STREE_SERVER_COMMAND", func(v string) {
			if v != "" {
				cfg.Server.Command = v
			}
		}},
		{"STREE_CACHE_PATH", func(v string) {
			if v != "" {
				cfg.Cache.Path = v
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
}

// DataDir returns the path to the stree data directory (~/.config/stree).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "stree"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}
