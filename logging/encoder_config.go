package logging

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// JSON keys written by every core.
const (
	FieldTimestamp  = "ts"
	FieldLevel      = "level"
	FieldLogger     = "logger"
	FieldMessage    = "msg"
	FieldCaller     = "caller"
	FieldStacktrace = "stacktrace"
)

// NewEncoderConfig returns the JSON encoder config used for the log file and
// for production console output: ISO8601 time, lowercase level, durations in
// milliseconds since frame timings are sub-second.
//
// This is a pure function with no side effects.
func NewEncoderConfig() zapcore.EncoderConfig {
	cfg := baseEncoderConfig()
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	return cfg
}

// NewConsoleEncoderConfig returns the development console config with
// colored levels and a clock-only timestamp.
//
// This is a pure function with no side effects.
func NewConsoleEncoderConfig() zapcore.EncoderConfig {
	cfg := baseEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = clockEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}

func baseEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       FieldTimestamp,
		LevelKey:      FieldLevel,
		NameKey:       FieldLogger,
		CallerKey:     FieldCaller,
		MessageKey:    FieldMessage,
		StacktraceKey: FieldStacktrace,
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeName:    zapcore.FullNameEncoder,
	}
}

func clockEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05.000"))
}
