package config

import (
	"time"

	"regionmaster/internal/logging"
	"regionmaster/internal/observability/tracing"
)

// Config is the on-disk configuration shared by the master and catalog server.
type Config struct {
	Master       MasterConfig       `yaml:"master"`
	Catalog      CatalogConfig      `yaml:"catalog"`
	Coordination CoordinationConfig `yaml:"coordination"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Tracing      TracingConfig      `yaml:"tracing"`
	Log          LogConfig          `yaml:"log"`
}

type MasterConfig struct {
	Address                   string        `yaml:"address"`
	Workers                   int           `yaml:"workers"`
	InitialBackoff            time.Duration `yaml:"initialBackoff"`
	MaxBackoff                time.Duration `yaml:"maxBackoff"`
	ScanInterval              time.Duration `yaml:"scanInterval"`
	ExpectedCatalogPartitions int           `yaml:"expectedCatalogPartitions"`
	RPCTimeout                time.Duration `yaml:"rpcTimeout"`
}

type CatalogConfig struct {
	Backend       string `yaml:"backend"`
	Dir           string `yaml:"dir"`
	Address       string `yaml:"address"`
	Advertise     string `yaml:"advertise"`
	MasterAddress string `yaml:"masterAddress"`
}

// CoordinationConfig selects the marker store. An empty URL keeps markers in
// process memory.
type CoordinationConfig struct {
	URL    string `yaml:"url"`
	Bucket string `yaml:"bucket"`
}

// MetricsConfig enables the /metrics endpoint when Address is set.
type MetricsConfig struct {
	Address      string        `yaml:"address"`
	Namespace    string        `yaml:"namespace"`
	RateInterval time.Duration `yaml:"rateInterval"`
}

// TracingConfig enables span export when Endpoint is set.
type TracingConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	Insecure      bool          `yaml:"insecure"`
	ServiceName   string        `yaml:"serviceName"`
	SampleRatio   float64       `yaml:"sampleRatio"`
	BatchTimeout  time.Duration `yaml:"batchTimeout"`
	ExportTimeout time.Duration `yaml:"exportTimeout"`
	MaxQueueSize  int           `yaml:"maxQueueSize"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	Encoding    string `yaml:"encoding"`
}

func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:       c.Log.Level,
		Development: c.Log.Development,
		Encoding:    c.Log.Encoding,
	}
}

// TracingConfig builds the exporter settings for a process of the given
// role identified by instance.
func (c *Config) TracingConfig(role, instance string) tracing.Config {
	return tracing.Config{
		Endpoint:      c.Tracing.Endpoint,
		Insecure:      c.Tracing.Insecure,
		ServiceName:   c.Tracing.ServiceName,
		Role:          role,
		InstanceID:    instance,
		SampleRatio:   c.Tracing.SampleRatio,
		BatchTimeout:  c.Tracing.BatchTimeout,
		ExportTimeout: c.Tracing.ExportTimeout,
		MaxQueueSize:  c.Tracing.MaxQueueSize,
	}
}
