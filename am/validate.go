package am

import "github.com/teranos/bulkgraph/errors"

// Validate checks that the configuration can run an import
func (c *Config) Validate() error {
	if err := c.Import.Staging().Validate(); err != nil {
		return err
	}

	// max_processors and queue_size: 0 = derive, negative = invalid
	if c.Import.MaxProcessors < 0 {
		return invalid("import.max_processors must be >= 0, got %d", c.Import.MaxProcessors)
	}
	if c.Import.QueueSize < 0 {
		return invalid("import.queue_size must be >= 0, got %d", c.Import.QueueSize)
	}

	switch c.Import.IDType {
	case IDTypeActual, IDTypeString:
	default:
		return invalid("import.id_type must be %q or %q, got %q", IDTypeActual, IDTypeString, c.Import.IDType)
	}

	if c.Store.Path == "" {
		return invalid("store.path cannot be empty")
	}

	if c.Monitor.PollIntervalMS <= 0 {
		return invalid("monitor.poll_interval_ms must be > 0, got %d", c.Monitor.PollIntervalMS)
	}

	switch c.Monitor.Display {
	case DisplaySpectrum:
		if c.Monitor.SpectrumWidth < 20 {
			return invalid("monitor.spectrum_width must be >= 20, got %d", c.Monitor.SpectrumWidth)
		}
	case DisplayHuman, DisplayJSON, DisplayNone:
	default:
		return invalid("monitor.display must be one of spectrum, human, json, none; got %q", c.Monitor.Display)
	}

	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), errors.ErrInvalidConfig)
}
