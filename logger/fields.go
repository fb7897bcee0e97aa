package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across the importer.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID     = "run_id"
	FieldComponent = "component"

	// Pipeline
	FieldStage      = "stage"
	FieldStages     = "stages"
	FieldStep       = "step"
	FieldProcessors = "processors"
	FieldBatchSize  = "batch_size"
	FieldBatches    = "done_batches"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldElapsed    = "elapsed"

	// Errors
	FieldError = "error"

	// Memory
	FieldUsedBytes      = "used_bytes"
	FieldAvailableBytes = "available_bytes"
	FieldStrategy       = "strategy"

	// Store
	FieldPath     = "path"
	FieldRecords  = "records"
	FieldHighID   = "high_id"
	FieldSymbol   = "symbol"
	FieldNodes    = "nodes"
	FieldRels     = "relationships"
	FieldTokens   = "tokens"
	FieldCounters = "counters"
)

// Context keys for propagating logging context
type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds an import run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// FromContext returns base (or the global Logger when base is nil) with fields extracted from ctx.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	supervisor := staging.NewExecutionSupervisor(clock, interval, monitor,
//	    logger.ComponentLogger("staging.supervisor"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// OrDefault returns l, or a component logger when l is nil.
func OrDefault(l *zap.SugaredLogger, component string) *zap.SugaredLogger {
	if l != nil {
		return l
	}
	return ComponentLogger(component)
}
