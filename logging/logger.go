// Package logging provides the service's structured logger: zap with a JSON
// file core rotated by lumberjack, teed with a console core, and redaction of
// credentials in every field.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New. Zero values select defaults.
type Options struct {
	// Development selects colored console output and debug level
	Development bool

	// FilePath is the rotated JSON log file; empty disables file output
	FilePath string

	// Level overrides the mode's default level when non-nil
	Level *zapcore.Level

	// File tunes rotation; zero fields use defaults
	File FileWriterConfig

	// Console replaces stdout, mainly for tests
	Console zapcore.WriteSyncer
}

// Logger is the logging organism. It composes the FileWriter and MultiCore
// molecules and the redaction atoms, and exposes both typed and sugared
// methods. Both *Logger and its Sugar satisfy the bridge's Logger interface.
//
//	logger, err := logging.NewLogger(true, "edgecam.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//	logger.Infow("frame processed", "path", "direct")
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger

	isDevelopment bool
	logFilePath   string
}

// NewLogger creates a Logger writing to the console and to logFilePath with
// default rotation (20MB, 3 backups, 14 days, compressed).
func NewLogger(isDevelopment bool, logFilePath string) (*Logger, error) {
	return New(Options{
		Development: isDevelopment,
		FilePath:    logFilePath,
		File:        DefaultFileWriterConfig(),
	})
}

// New creates a Logger from opts.
func New(opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if opts.Development {
		level = zapcore.DebugLevel
	}
	if opts.Level != nil {
		level = *opts.Level
	}

	console := opts.Console
	if console == nil {
		console = zapcore.Lock(os.Stdout)
	}

	var file zapcore.WriteSyncer
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file = NewFileWriterWithConfig(opts.FilePath, opts.File)
	}

	core := NewMultiCore(level, console, file, opts.Development)
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return &Logger{
		zap:           z,
		sugar:         z.Sugar(),
		isDevelopment: opts.Development,
		logFilePath:   opts.FilePath,
	}, nil
}

// NewFromZap wraps an existing zap logger, such as one built on an observer
// core in tests.
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{zap: z, sugar: z.Sugar()}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return NewFromZap(zap.NewNop())
}

// Sync flushes buffered entries. Call it before exit.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, redactFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, redactFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, redactFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, redactFields(fields)...)
}

// Fatal logs then calls os.Exit(1).
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, redactFields(fields)...)
}

func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, redactKeysAndValues(keysAndValues)...)
}

func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, redactKeysAndValues(keysAndValues)...)
}

func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, redactKeysAndValues(keysAndValues)...)
}

func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, redactKeysAndValues(keysAndValues)...)
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	z := l.zap.With(redactFields(fields)...)
	return l.derive(z)
}

// Named returns a child logger with a name segment, e.g. "bridge".
func (l *Logger) Named(name string) *Logger {
	return l.derive(l.zap.Named(name))
}

func (l *Logger) derive(z *zap.Logger) *Logger {
	return &Logger{
		zap:           z,
		sugar:         z.Sugar(),
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Sugar returns the underlying sugared logger. It does not redact.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// Zap returns the underlying logger. It does not redact.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// IsDevelopment reports whether the logger was built in development mode.
func (l *Logger) IsDevelopment() bool {
	return l.isDevelopment
}

// LogFilePath returns the log file path, or "" without file output.
func (l *Logger) LogFilePath() string {
	return l.logFilePath
}
