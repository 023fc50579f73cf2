// Package config loads scan settings from a YAML file with environment
// overrides.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config carries the tunables of a scan session.
type Config struct {
	// ValidPrefix is the storage scheme accepted as convertible.
	ValidPrefix string `yaml:"valid_prefix"`
	// LookupFunction is the call emitted into rewritten lines.
	LookupFunction string `yaml:"lookup_function"`
	// PrimaryExtension is the only extension exempt from the file-type gate.
	PrimaryExtension string `yaml:"primary_extension"`
	// IncludeMaybes rewrites MAYBE findings in addition to SIMPLE ones.
	IncludeMaybes bool `yaml:"include_maybes"`
	// Workers bounds concurrent file scanning; 1 scans sequentially.
	Workers int `yaml:"workers"`
	// PatternEngine selects the regex engine: "cached" or "regexp".
	PatternEngine string `yaml:"pattern_engine"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		ValidPrefix:      "abfss",
		LookupFunction:   "get_uc_mount_target",
		PrimaryExtension: ".py",
		IncludeMaybes:    true,
		Workers:          1,
		PatternEngine:    "cached",
	}
}

// Load reads configuration from path, layered over the defaults. An empty
// path returns the defaults. A .env file in the working directory and the
// process environment override file values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MOUNTSCAN_VALID_PREFIX"); v != "" {
		c.ValidPrefix = v
	}
	if v := os.Getenv("MOUNTSCAN_LOOKUP_FUNCTION"); v != "" {
		c.LookupFunction = v
	}
	if v := os.Getenv("MOUNTSCAN_PATTERN_ENGINE"); v != "" {
		c.PatternEngine = v
	}
}
