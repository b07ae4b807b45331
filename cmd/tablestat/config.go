package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/aglyzov/go-hashtree/fnv1a"
)

const (
	defaultBuckets = 1024
	defaultWidth   = 64
)

// Config describes the table tablestat builds.
type Config struct {
	Buckets  int   `yaml:"buckets,omitempty"`
	Width    uint8 `yaml:"width,omitempty"`
	Budget   int64 `yaml:"budget,omitempty"`
	PoolSize int   `yaml:"poolSize,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Buckets: defaultBuckets,
		Width:   defaultWidth,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %q", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %q", path)
	}

	return cfg, nil
}

// Merge overrides the file settings with the flags that were given.
func (c *Config) Merge(opts *Options) {
	if opts.Buckets != 0 {
		c.Buckets = opts.Buckets
	}
	if opts.Width != 0 {
		c.Width = opts.Width
	}
	if opts.Budget != 0 {
		c.Budget = opts.Budget
	}
	if opts.PoolSize != 0 {
		c.PoolSize = opts.PoolSize
	}
}

func (c *Config) Validate() error {
	if c.Buckets <= 0 {
		return errors.Newf("buckets must be positive, got %d", c.Buckets)
	}
	if w := fnv1a.Width(c.Width); w != fnv1a.Width32 && w != fnv1a.Width64 {
		return errors.Newf("width must be 32 or 64, got %d", c.Width)
	}
	if c.Budget < 0 {
		return errors.Newf("budget must not be negative, got %d", c.Budget)
	}
	if c.PoolSize < 0 {
		return errors.Newf("poolSize must not be negative, got %d", c.PoolSize)
	}
	return nil
}
