package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"unnest/pkg/env"
	"unnest/pkg/logger"
	"unnest/pkg/paths"
)

const (
	DefaultMaxDepth          = 10
	DefaultClassifyCacheSize = 1024
	FileName                 = "unnest.json"
)

// Config holds application configuration
type Config struct {
	// Extraction settings
	OutputDir  string `json:"output_dir"`  // empty: a temporary directory is created per run
	MaxDepth   int    `json:"max_depth"`   // nesting levels to descend, root counts as one
	Flatten    bool   `json:"flatten"`     // false keeps one subdirectory per archive
	Password   string `json:"password"`    // best-effort hint for RAR/7z
	ScratchDir string `json:"scratch_dir"` // parent of per-archive scratch areas

	// Filtering (filepath.Match globs against the base name)
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`

	ClassifyCacheSize int `json:"classify_cache_size"`

	// Logging
	LogLevel string `json:"log_level"`
	LogDir   string `json:"log_dir"` // empty: no log file

	// Internal - where was this config loaded from?
	LoadedPath string `json:"-"`
}

// Default returns a config with every default applied.
func Default() *Config {
	return &Config{
		MaxDepth:          DefaultMaxDepth,
		Flatten:           true,
		ClassifyCacheSize: DefaultClassifyCacheSize,
		LogLevel:          "INFO",
	}
}

// Load reads configuration from path (or unnest.json in the data dir when path
// is empty), then applies environment variable overrides once.
// Priority: Environment variables (if not empty) > config file > defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = filepath.Join(paths.GetDataDir(), FileName)
	}

	cfg := Default()
	cfg.LoadedPath = path

	if err := cfg.LoadFile(path); err != nil {
		if os.IsNotExist(err) {
			logger.Debug("No config file found, using defaults", "path", path)
		} else {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	} else {
		logger.Debug("Loaded configuration", "path", path)
	}

	overrides, keys := env.ReadConfigOverrides()
	ApplyEnvOverrides(cfg, overrides, keys)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overrides config with values from a JSON file
func (c *Config) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(c)
}

// SaveFile saves the current configuration to a JSON file
func (c *Config) SaveFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c)
}

// Validate rejects values the extractor cannot run with.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	for _, p := range append(slices.Clone(c.Include), c.Exclude...) {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment-derived overrides to cfg (used at startup only).
// Only fields present in keys are applied, so env vars override file values per setting.
func ApplyEnvOverrides(cfg *Config, o env.ConfigOverrides, keys []string) {
	if slices.Contains(keys, env.KeyOutputDir) {
		cfg.OutputDir = o.OutputDir
	}
	if slices.Contains(keys, env.KeyMaxDepth) {
		cfg.MaxDepth = o.MaxDepth
	}
	if slices.Contains(keys, env.KeyFlatten) {
		cfg.Flatten = o.Flatten
	}
	if slices.Contains(keys, env.KeyPassword) {
		cfg.Password = o.Password
	}
	if slices.Contains(keys, env.KeyScratchDir) {
		cfg.ScratchDir = o.ScratchDir
	}
	if slices.Contains(keys, env.KeyInclude) {
		cfg.Include = o.Include
	}
	if slices.Contains(keys, env.KeyExclude) {
		cfg.Exclude = o.Exclude
	}
	if slices.Contains(keys, env.KeyClassifyCache) {
		cfg.ClassifyCacheSize = o.ClassifyCacheSize
	}
	if slices.Contains(keys, env.KeyLogDir) {
		cfg.LogDir = o.LogDir
	}
	if slices.Contains(keys, env.KeyLogLevel) {
		cfg.LogLevel = o.LogLevel
	}
}
