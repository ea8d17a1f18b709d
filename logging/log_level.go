package logging

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// ParseLogLevel reads a level from envVarName, returning defaultLevel when the
// variable is unset or invalid.
//
//	level := ParseLogLevel("EDGECAM_LOG_LEVEL", zapcore.InfoLevel)
func ParseLogLevel(envVarName string, defaultLevel zapcore.Level) zapcore.Level {
	value := os.Getenv(envVarName)
	if value == "" {
		return defaultLevel
	}
	return ParseLogLevelString(value, defaultLevel)
}

// ParseLogLevelString parses debug, info, warn (or warning), error and fatal,
// case-insensitively.
//
// This is a pure function with no side effects.
func ParseLogLevelString(levelStr string, defaultLevel zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return defaultLevel
	}
}

// ValidLogLevel reports whether levelStr names a level ParseLogLevelString
// accepts.
func ValidLogLevel(levelStr string) bool {
	const sentinel = zapcore.Level(-128)
	return ParseLogLevelString(levelStr, sentinel) != sentinel
}
