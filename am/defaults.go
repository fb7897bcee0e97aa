package am

import (
	"github.com/spf13/viper"
)

// Default values. Kept as constants so tests and `config init` agree with SetDefaults.
const (
	DefaultBatchSize          = 10_000
	DefaultMovingAverageSize  = 100
	DefaultDenseNodeThreshold = 50
	DefaultPollIntervalMS     = 500
	DefaultSpectrumWidth      = 80
	DefaultStorePath          = "graph.db"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Import pipeline
	v.SetDefault("import.batch_size", DefaultBatchSize)
	v.SetDefault("import.moving_average_size", DefaultMovingAverageSize)
	v.SetDefault("import.max_processors", 0) // resolved to runtime.NumCPU()
	v.SetDefault("import.dense_node_threshold", DefaultDenseNodeThreshold)
	v.SetDefault("import.queue_size", 0) // resolved to max_processors
	v.SetDefault("import.id_type", IDTypeActual)

	// Store
	v.SetDefault("store.path", DefaultStorePath)

	// Progress monitoring
	v.SetDefault("monitor.poll_interval_ms", DefaultPollIntervalMS)
	v.SetDefault("monitor.spectrum_width", DefaultSpectrumWidth)
	v.SetDefault("monitor.display", DisplaySpectrum)
	v.SetDefault("monitor.metrics_addr", "")
}

// Defaults returns a Config populated only from SetDefaults
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// Defaults always unmarshal; reaching this is a programming error
		panic(err)
	}
	return cfg
}
