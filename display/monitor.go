package display

import (
	"io"

	"github.com/teranos/bulkgraph/am"
	"github.com/teranos/bulkgraph/errors"
	"github.com/teranos/bulkgraph/staging"
)

// NewMonitor builds the progress monitor selected by cfg.Display. DisplayNone yields nil.
func NewMonitor(cfg am.MonitorConfig, out io.Writer, verbosity int) (staging.ExecutionMonitor, error) {
	switch cfg.Display {
	case am.DisplaySpectrum:
		return staging.NewSpectrumExecutionMonitor(out, cfg.SpectrumWidth), nil
	case am.DisplayHuman:
		return NewHumanMonitor(out, verbosity), nil
	case am.DisplayJSON:
		return NewJSONMonitor(out), nil
	case am.DisplayNone:
		return nil, nil
	default:
		return nil, errors.Mark(errors.Newf("unknown display %q", cfg.Display), errors.ErrInvalidConfig)
	}
}
