package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			require.NoError(t, Initialize(tt.jsonOutput))
			assert.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			Cleanup()
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
	assert.Equal(t, "Info (-v)", LevelName(1))
}

func TestFieldsFromContext(t *testing.T) {
	ctx := WithComponent(WithRunID(context.Background(), "abc"), "importer")

	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{FieldRunID, "abc", FieldComponent, "importer"}, fields)
	assert.Empty(t, FieldsFromContext(context.Background()))
}

func TestOrDefault(t *testing.T) {
	base := zaptest.NewLogger(t).Sugar()
	assert.Same(t, base, OrDefault(base, "x"))
	assert.NotNil(t, OrDefault(nil, "x"))
}
