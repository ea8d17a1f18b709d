package core

import (
	"errors"
	"fmt"
)

// ConfigError represents a configuration-related error with actionable instructions.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeConfigFile     = "CONFIG_FILE_INVALID"
	ErrCodeInvalidValue   = "INVALID_VALUE"
	ErrCodeSourceNotFound = "SOURCE_NOT_FOUND"
)

// ErrConfigFile returns an error for an unreadable or malformed YAML file.
func ErrConfigFile(path, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeConfigFile,
		Message: fmt.Sprintf("Cannot load configuration file %s: %s", path, reason),
		Action:  "Fix the file or unset EDGECAM_CONFIG",
	}
}

// ErrInvalidValue returns an error for a setting outside its accepted range.
func ErrInvalidValue(varName, value, want string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("Invalid %s '%s'", varName, value),
		Action:  fmt.Sprintf("Set %s to %s", varName, want),
	}
}

// ErrSourceNotFound returns an error when the frame source directory is missing.
func ErrSourceNotFound(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeSourceNotFound,
		Message: fmt.Sprintf("Frame source directory not found: %s", path),
		Action:  "Set EDGECAM_SOURCE to an existing image directory or to 'synthetic'",
	}
}

// IsConfigError checks if an error is (or wraps) a ConfigError and returns it if so
func IsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error if it's a ConfigError
func GetErrorCode(err error) string {
	if configErr, ok := IsConfigError(err); ok {
		return configErr.Code
	}
	return ""
}
