package logger

import (
	"bytes"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Everforest-ish palette, kept small on purpose: time, component, warn and error.
const (
	colorReset     = "\x1b[0m"
	colorBold      = "\x1b[1m"
	colorTime      = "\x1b[38;5;107m"
	colorComponent = "\x1b[38;5;208m"
	colorWarn      = "\x1b[38;5;179m"
	colorError     = "\x1b[38;5;167m"
)

var bufferPool = buffer.NewPool()

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  s.supervisor  Stage finished  {"stage":"Nodes","duration_ms":412}"
//
// Fields (including those attached with With) are serialized by the embedded JSON
// encoder so nothing is ever dropped.
type minimalEncoder struct {
	zapcore.Encoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{Encoder: zapcore.NewJSONEncoder(fieldsOnlyConfig())}
}

// fieldsOnlyConfig produces a JSON encoder that renders nothing but fields
func fieldsOnlyConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		LineEnding:     "",
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	final.AppendString(colorTime)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: only shown when it is not INFO
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent)
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	serialized, err := enc.Encoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		final.Free()
		return nil, err
	}
	body := bytes.TrimSpace(serialized.Bytes())
	if len(body) > 2 { // more than "{}"
		final.AppendString("  ")
		final.AppendBytes(body)
	}
	serialized.Free()

	final.AppendString("\n")
	return final, nil
}

func levelString(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.WarnLevel:
		return colorBold + colorWarn + "WARN" + colorReset
	default:
		return colorBold + colorError + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens component names: staging.supervisor -> s.supervisor
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}
