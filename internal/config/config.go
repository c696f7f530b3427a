// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads capprobe.yml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied to fields the file leaves unset.
const (
	DefaultProbeTimeout = 30 * time.Second
	DefaultThreadDelay  = 100 * time.Millisecond
	DefaultSeed         = 42
	DefaultStateDir     = ".capprobe/run"
	DefaultColor        = "auto"
)

// FileNames are the names Load looks for, in order.
var FileNames = []string{"capprobe.yml", "capprobe.yaml"}

// ErrInvalid marks a config file that parsed but holds unusable values.
var ErrInvalid = errors.New("invalid config")

// Config holds settings loaded from capprobe.yml.
type Config struct {
	ProbeTimeout   time.Duration `yaml:"probeTimeout,omitempty"`
	ThreadDelay    time.Duration `yaml:"threadDelay,omitempty"`
	Seed           *uint64       `yaml:"seed,omitempty"`
	StateDir       string        `yaml:"stateDir,omitempty"`
	DisabledProbes []string      `yaml:"disabledProbes,omitempty"`
	Color          string        `yaml:"color,omitempty"`

	// Path is the file the config came from, empty for defaults.
	Path string `yaml:"-"`
}

// Load reads capprobe.yml or capprobe.yaml from dir. A directory without
// either file yields the defaults, not an error.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile reads an explicit config path. Unlike Load, a missing file is an
// error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	cfg.applyDefaults()
	return &cfg, nil
}

// SeedValue returns the configured seed or DefaultSeed.
func (c *Config) SeedValue() uint64 {
	if c.Seed == nil {
		return DefaultSeed
	}
	return *c.Seed
}

func (c *Config) applyDefaults() {
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	if c.ThreadDelay == 0 {
		c.ThreadDelay = DefaultThreadDelay
	}
	if c.StateDir == "" {
		c.StateDir = DefaultStateDir
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
}

func (c *Config) validate() error {
	if c.ProbeTimeout < 0 {
		return fmt.Errorf("%w: probeTimeout must not be negative", ErrInvalid)
	}
	if c.ThreadDelay < 0 {
		return fmt.Errorf("%w: threadDelay must not be negative", ErrInvalid)
	}
	switch c.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("%w: color %q (want auto, always or never)", ErrInvalid, c.Color)
	}
	return nil
}
