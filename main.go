package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"edgecam/core"
	"edgecam/logging"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to read .env: %v\n", err)
	}

	err := newRootCmd().Execute()
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(exitCodeOf(err))
}

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return core.ExitCodeName(e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// withExitCode tags err with an exit code. A nil err still produces a
// non-nil error so silent failures (already reported) exit non-zero.
func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeOf maps an Execute result to a process exit code.
func exitCodeOf(err error) int {
	if err == nil {
		return core.ExitCodeSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return core.ExitCodeError
}

// loadRuntime loads configuration and builds the logger described by it.
func loadRuntime() (*core.Config, *logging.Logger, error) {
	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	level := logging.ParseLogLevelString(cfg.LogLevel, zap.InfoLevel)
	rotation := logging.DefaultFileWriterConfig()
	rotation.MaxSizeMB = cfg.LogMaxSizeMB()
	logger, err := logging.New(logging.Options{
		Development: cfg.DevMode,
		FilePath:    cfg.LogFile,
		Level:       &level,
		File:        rotation,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

// describeStartupError renders configuration errors with their suggested
// fix.
func describeStartupError(err error) string {
	if cfgErr, ok := core.IsConfigError(err); ok {
		msg := fmt.Sprintf("configuration error [%s]: %s", cfgErr.Code, cfgErr.Message)
		if cfgErr.Action != "" {
			msg += "\n  -> " + cfgErr.Action
		}
		return msg
	}
	return fmt.Sprintf("startup failed: %v", err)
}
