package logging

import (
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults sized for devices with small flash storage.
const (
	DefaultMaxSizeMB  = 20
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 14
	DefaultCompress   = true
)

// FileWriterConfig controls log rotation. Zero sizes and counts take the
// defaults; Compress is taken as given, so start from DefaultFileWriterConfig
// to keep compression on.
type FileWriterConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// LocalTime names backups in local time instead of UTC
	LocalTime bool
}

// DefaultFileWriterConfig returns the default rotation policy.
func DefaultFileWriterConfig() FileWriterConfig {
	return FileWriterConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   DefaultCompress,
	}
}

// NewFileWriter returns a rotating WriteSyncer for path with default policy.
func NewFileWriter(path string) zapcore.WriteSyncer {
	return NewFileWriterWithConfig(path, DefaultFileWriterConfig())
}

// NewFileWriterWithConfig returns a rotating WriteSyncer for path. The file is
// opened lazily on first write.
func NewFileWriterWithConfig(path string, config FileWriterConfig) zapcore.WriteSyncer {
	cfg := applyFileWriterDefaults(config)
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	})
}

// This is a pure function with no side effects.
func applyFileWriterDefaults(config FileWriterConfig) FileWriterConfig {
	if config.MaxSizeMB <= 0 {
		config.MaxSizeMB = DefaultMaxSizeMB
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = DefaultMaxBackups
	}
	if config.MaxAgeDays <= 0 {
		config.MaxAgeDays = DefaultMaxAgeDays
	}
	return config
}
