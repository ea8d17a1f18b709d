package logging

import (
	"go.uber.org/zap/zapcore"
)

// NewMultiCore tees a console core and, when fileWriter is non-nil, a JSON
// file core at the same level. The console is human-readable and colored in
// development and JSON otherwise; the file is always JSON.
func NewMultiCore(level zapcore.Level, consoleWriter, fileWriter zapcore.WriteSyncer, isDev bool) zapcore.Core {
	var consoleEncoder zapcore.Encoder
	if isDev {
		consoleEncoder = zapcore.NewConsoleEncoder(NewConsoleEncoderConfig())
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(NewEncoderConfig())
	}
	consoleCore := zapcore.NewCore(consoleEncoder, consoleWriter, level)

	if fileWriter == nil {
		return consoleCore
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(NewEncoderConfig()),
		fileWriter,
		level,
	)
	return zapcore.NewTee(consoleCore, fileCore)
}
