package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/bulkgraph/errors"
)

// ConfigFileName is the project config file searched for from the working directory upward
const ConfigFileName = "bulkgraph.toml"

// Load reads the configuration from defaults, config files and BULKGRAPH_* environment variables.
// Every call builds a fresh Viper instance; one import run reads its configuration once.
func Load() (*Config, error) {
	return LoadWithViper(NewViper())
}

// NewViper initializes Viper with configuration sources and defaults
func NewViper() *viper.Viper {
	v := viper.New()

	// BULKGRAPH_IMPORT_BATCH_SIZE -> import.batch_size
	v.SetEnvPrefix("BULKGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	mergeConfigFiles(v)
	return v
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path on top of the defaults
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	return config, nil
}

// findProjectConfig searches for bulkgraph.toml by walking up the directory tree.
// Returns the path to the first config file found, or empty string if none found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges configuration files in precedence order.
// Precedence (lowest to highest): user < project < env vars
func mergeConfigFiles(v *viper.Viper) {
	var configPaths []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		configPaths = append(configPaths, filepath.Join(homeDir, ".bulkgraph", ConfigFileName))
	}
	if projectConfig := findProjectConfig(); projectConfig != "" {
		configPaths = append(configPaths, projectConfig)
	}

	for _, configPath := range configPaths {
		if _, err := os.Stat(configPath); err != nil {
			continue
		}
		fileViper := viper.New()
		fileViper.SetConfigFile(configPath)
		fileViper.SetConfigType("toml")
		if err := fileViper.ReadInConfig(); err != nil {
			continue
		}
		if err := v.MergeConfigMap(fileViper.AllSettings()); err != nil {
			continue
		}
	}
}
