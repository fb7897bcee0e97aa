package logger

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return ansiRegex.ReplaceAllString(str, "")
}

func TestMinimalEncoderNeverDiscardsFields(t *testing.T) {
	encoder := newMinimalEncoder()
	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2024, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "staging.supervisor",
		Message:    "Stage finished",
	}

	buf, err := encoder.EncodeEntry(entry, []zapcore.Field{
		zap.String(FieldStage, "Nodes"),
		zap.Int(FieldProcessors, 3),
		zap.Bool("dense", true),
	})
	require.NoError(t, err)
	out := stripANSI(buf.String())

	assert.Contains(t, out, "13:04:35")
	assert.Contains(t, out, "s.supervisor")
	assert.Contains(t, out, "Stage finished")
	assert.Contains(t, out, `"stage":"Nodes"`)
	assert.Contains(t, out, `"processors":3`)
	assert.Contains(t, out, `"dense":true`)
	assert.NotContains(t, out, "INFO")
}

func TestMinimalEncoderKeepsContextFields(t *testing.T) {
	encoder := newMinimalEncoder()
	clone := encoder.Clone()
	clone.AddString(FieldRunID, "run-1")

	buf, err := clone.EncodeEntry(zapcore.Entry{Level: zapcore.WarnLevel, Message: "slow step"}, nil)
	require.NoError(t, err)
	out := stripANSI(buf.String())

	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, `"run_id":"run-1"`)
}

func TestMinimalEncoderOmitsEmptyFields(t *testing.T) {
	buf, err := newMinimalEncoder().EncodeEntry(zapcore.Entry{Message: "plain"}, nil)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "{}")
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "s.supervisor", abbreviateName("staging.supervisor"))
	assert.Equal(t, "importer", abbreviateName("importer"))
}
