package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"regionmaster/internal/catalog"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file, fills unset fields with defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration from memory.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Master.Address == "" {
		c.Master.Address = ":60000"
	}
	if c.Master.Workers == 0 {
		c.Master.Workers = 4
	}
	if c.Master.InitialBackoff == 0 {
		c.Master.InitialBackoff = 100 * time.Millisecond
	}
	if c.Master.MaxBackoff == 0 {
		c.Master.MaxBackoff = 10 * time.Second
	}
	if c.Master.ScanInterval == 0 {
		c.Master.ScanInterval = 10 * time.Second
	}
	if c.Master.ExpectedCatalogPartitions == 0 {
		c.Master.ExpectedCatalogPartitions = 1
	}
	if c.Master.RPCTimeout == 0 {
		c.Master.RPCTimeout = 5 * time.Second
	}
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = catalog.BackendBolt
	}
	if c.Catalog.Dir == "" {
		c.Catalog.Dir = "data/catalog"
	}
	if c.Catalog.Address == "" {
		c.Catalog.Address = ":60020"
	}
	if c.Catalog.MasterAddress == "" {
		c.Catalog.MasterAddress = "127.0.0.1:60000"
	}
	if c.Metrics.RateInterval == 0 {
		c.Metrics.RateInterval = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate rejects settings the processes cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Master.Workers < 0 {
		errs = append(errs, fmt.Errorf("master.workers must be positive, got %d", c.Master.Workers))
	}
	if c.Master.InitialBackoff < 0 || c.Master.MaxBackoff < 0 {
		errs = append(errs, errors.New("master backoff durations must not be negative"))
	}
	if c.Master.MaxBackoff < c.Master.InitialBackoff {
		errs = append(errs, fmt.Errorf("master.maxBackoff %s is below master.initialBackoff %s",
			c.Master.MaxBackoff, c.Master.InitialBackoff))
	}
	if c.Master.ExpectedCatalogPartitions < 0 {
		errs = append(errs, errors.New("master.expectedCatalogPartitions must not be negative"))
	}
	switch c.Catalog.Backend {
	case catalog.BackendBolt, catalog.BackendPebble:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", catalog.ErrUnknownBackend, c.Catalog.Backend))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sampleRatio must be within [0,1], got %v", c.Tracing.SampleRatio))
	}
	return errors.Join(errs...)
}
