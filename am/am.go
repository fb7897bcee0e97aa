// Package am ("I am") holds the bulkgraph configuration: import tuning, store location and
// progress display settings. Values come from defaults, bulkgraph.toml files and
// BULKGRAPH_* environment variables, merged with Viper.
package am

import (
	"time"

	"github.com/teranos/bulkgraph/staging"
)

// Config represents the complete bulkgraph configuration
type Config struct {
	Import  ImportConfig  `mapstructure:"import" toml:"import"`
	Store   StoreConfig   `mapstructure:"store" toml:"store"`
	Monitor MonitorConfig `mapstructure:"monitor" toml:"monitor"`
}

// ImportConfig tunes the staged import pipeline
type ImportConfig struct {
	BatchSize          int    `mapstructure:"batch_size" toml:"batch_size"`                     // Records per batch flowing between steps
	MovingAverageSize  int    `mapstructure:"moving_average_size" toml:"moving_average_size"`   // Samples in the per-step processing time average
	MaxProcessors      int    `mapstructure:"max_processors" toml:"max_processors"`             // Processor budget across all running steps (0 = number of CPUs)
	DenseNodeThreshold int    `mapstructure:"dense_node_threshold" toml:"dense_node_threshold"` // Degree at which a node is flagged dense
	QueueSize          int    `mapstructure:"queue_size" toml:"queue_size"`                     // Batches buffered between two steps (0 = max_processors)
	IDType             string `mapstructure:"id_type" toml:"id_type"`                           // "actual" (numeric ids) or "string"
}

// StoreConfig configures where records are written
type StoreConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// MonitorConfig configures live progress output
type MonitorConfig struct {
	PollIntervalMS int    `mapstructure:"poll_interval_ms" toml:"poll_interval_ms"` // Supervisor tick interval
	SpectrumWidth  int    `mapstructure:"spectrum_width" toml:"spectrum_width"`     // Terminal columns used by the spectrum line
	Display        string `mapstructure:"display" toml:"display"`                   // "spectrum", "human", "json" or "none"
	MetricsAddr    string `mapstructure:"metrics_addr" toml:"metrics_addr"`         // Serve prometheus metrics here when set
}

// ID types accepted by import.id_type
const (
	IDTypeActual = "actual"
	IDTypeString = "string"
)

// Display modes accepted by monitor.display
const (
	DisplaySpectrum = "spectrum"
	DisplayHuman    = "human"
	DisplayJSON     = "json"
	DisplayNone     = "none"
)

// Staging returns the immutable pipeline configuration for one import run.
// MaxProcessors and QueueSize of zero resolve to their staging defaults.
func (c ImportConfig) Staging() staging.Configuration {
	cfg := staging.DefaultConfiguration()
	cfg.BatchSize = c.BatchSize
	cfg.MovingAverageSize = c.MovingAverageSize
	cfg.DenseNodeThreshold = c.DenseNodeThreshold
	if c.MaxProcessors > 0 {
		cfg.MaxProcessors = c.MaxProcessors
	}
	if c.QueueSize > 0 {
		cfg.QueueSize = c.QueueSize
	} else {
		cfg.QueueSize = cfg.MaxProcessors
	}
	return cfg
}

// PollInterval returns the supervisor tick interval
func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
