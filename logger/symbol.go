package logger

import (
	"go.uber.org/zap"

	"github.com/teranos/bulkgraph/sym"
)

// Symbol-aware logging helpers.
// These wrap an instance logger with the symbol as a structured field, not in the message.
//
// Usage:
//
//	l := logger.AddIXSymbol(baseLogger)
//	l.Infow("Import starting", "store", dir)

// AddIXSymbol wraps a logger with the IX symbol (⨳) used for import operations
func AddIXSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.IX)
}

// AddDBSymbol wraps a logger with the DB symbol (⊔) used for storage operations
func AddDBSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.DB)
}

// AddPulseSymbol wraps a logger with the Pulse symbol (꩜) used by the supervisor tick loop
func AddPulseSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Pulse)
}
