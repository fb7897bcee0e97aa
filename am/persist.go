package am

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/bulkgraph/errors"
)

// DefaultFilePermissions is used for config files written by `bulkgraph config init`
const DefaultFilePermissions = 0644

// WriteDefault writes the default configuration as TOML to path.
// An existing file is kept and reported as an error unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	return Write(path, Defaults(), overwrite)
}

// Write serializes cfg as TOML to path, creating parent directories as needed
func Write(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.WithHint(
				errors.Newf("config file %s already exists", path),
				"pass --force to overwrite it")
		}
	}

	content, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.Wrapf(err, "failed to create config directory %s", dir)
		}
	}

	if err := os.WriteFile(path, content, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}

// Marshal renders cfg as TOML
func Marshal(cfg *Config) ([]byte, error) {
	content, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return content, nil
}
